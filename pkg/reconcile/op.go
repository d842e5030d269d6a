package reconcile

import "fmt"

// Op is the gated outcome for one target: Confirmed or Denied, always
// carrying the Reason that produced it. StatusError denials also carry
// the underlying error.
type Op struct {
	confirmed bool
	reason    Reason
	err       error
}

// Confirmed builds a confirmed Op.
func Confirmed(reason Reason) Op {
	return Op{confirmed: true, reason: reason}
}

// Denied builds a denied Op.
func Denied(reason Reason) Op {
	return Op{reason: reason}
}

// DeniedErr builds a denied Op carrying an underlying error, used for
// StatusError.
func DeniedErr(reason Reason, err error) Op {
	return Op{reason: reason, err: err}
}

// Verify confirms the reason when cond holds and denies it otherwise.
func Verify(cond bool, reason Reason) Op {
	if cond {
		return Confirmed(reason)
	}
	return Denied(reason)
}

// Or returns the receiver when confirmed, b otherwise.
func (o Op) Or(b Op) Op {
	if o.confirmed {
		return o
	}
	return b
}

// OrElse returns the receiver when confirmed; otherwise the result of
// f applied to the denying reason.
func (o Op) OrElse(f func(Reason) Op) Op {
	if o.confirmed {
		return o
	}
	return f(o.reason)
}

// Reason returns the classification behind this outcome.
func (o Op) Reason() Reason {
	return o.reason
}

// Err returns the underlying error for StatusError outcomes.
func (o Op) Err() error {
	return o.err
}

// WasConfirmed reports whether the action may proceed.
func (o Op) WasConfirmed() bool {
	return o.confirmed
}

// WasDenied reports whether the action was refused.
func (o Op) WasDenied() bool {
	return !o.confirmed
}

func (o Op) String() string {
	info := o.reason.Info()
	flags := o.reason.Flags()
	if flags == "" {
		return info
	}
	if o.confirmed {
		return fmt.Sprintf("%s (%s was used)", info, flags)
	}
	return fmt.Sprintf("%s (use %s to remove)", info, flags)
}
