package fsm

const (
	StateStart              = "start"
	StateMain               = "main"
	StateApartmentList      = "apartment_list"
	StateDownPaymentOptions = "down_payment_options"
	StateCalculationResult  = "calculation_result"
	StatePaymentSchedule    = "payment_schedule"
)

const (
	EventShowMain          = "show_main"
	EventShowApartments    = "show_apartments"
	EventSelectApartment   = "select_apartment"
	EventSelectDownPayment = "select_down_payment"
	EventShowSchedule      = "show_schedule"
)

// FunnelOrder lists the screens of the price calculator in the order a visitor walks them.
var FunnelOrder = []string{
	StateMain,
	StateApartmentList,
	StateDownPaymentOptions,
	StateCalculationResult,
	StatePaymentSchedule,
}

var allScreens = []string{
	StateStart,
	StateMain,
	StateApartmentList,
	StateDownPaymentOptions,
	StateCalculationResult,
	StatePaymentSchedule,
}
