package repository

import "errors"

// Sentinel errors for state-guarded transitions. The guards live in the
// SQL itself (conditional UPDATEs inside the transaction), so a losing
// racer gets one of these instead of silently double-applying.
var (
	ErrAlreadyOnHold = errors.New("ticket is already on hold")
	ErrNotOnHold     = errors.New("ticket is not on hold")
	ErrTimerRunning  = errors.New("technician already has an open timer")
	ErrNoOpenTimer   = errors.New("no open timer for ticket")
)
