package esp

import "time"

// PollInterval is how long a read loop sleeps when the transport has no
// buffered byte. It is the granularity of every deadline.
const PollInterval = time.Millisecond

// Commands known to be slow get their own reply timeout. Everything else
// uses Config.ATTimeout.
const (
	timeoutUART        = 5 * time.Second
	timeoutVersion     = 10 * time.Second
	timeoutJoinAP      = 10 * time.Second
	timeoutListAP      = 15 * time.Second
	timeoutSoftAPQuery = 10 * time.Second
	timeoutSoftAPSet   = 5 * time.Second
	timeoutDHCPQuery   = 10 * time.Second
	timeoutDHCPSet     = 2 * time.Second
	timeoutAddrQuery   = 2 * time.Second
	timeoutStart       = 10 * time.Second
	timeoutSendPrompt  = 5 * time.Second
	timeoutSendOK      = 10 * time.Second
	timeoutClose       = 5 * time.Second
	timeoutShort       = 2 * time.Second

	// statusDelay is waited before AT+CIPSTATUS.
	statusDelay = 100 * time.Millisecond
	// restartPoll separates the AT probes issued after a reset.
	restartPoll = 100 * time.Millisecond
)
