package gateway

import "fmt"

// New returns the adapter for a provider code. This switch is the single
// place that grows when a provider is added; everything else dispatches
// through the Adapter interface.
func New(code Code) (Adapter, error) {
	switch code {
	case Zwitch:
		return NewZwitchAdapter(), nil
	case Razorpay:
		return NewRazorpayAdapter(), nil
	case PayU:
		return NewPayUAdapter(), nil
	case Cashfree:
		return NewCashfreeAdapter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedGateway, code)
	}
}
