package taxonomy

type SubscriptionStatus int

const (
	SubscriptionActive         SubscriptionStatus = 1
	SubscriptionCanceled       SubscriptionStatus = 2
	SubscriptionClosed         SubscriptionStatus = 3
	SubscriptionStopped        SubscriptionStatus = 4
	SubscriptionWaitingPayment SubscriptionStatus = 5
	SubscriptionInactive       SubscriptionStatus = 6
)

var SubscriptionStatuses = NewTable("subscription status", []Entry[SubscriptionStatus]{
	{SubscriptionActive, "Active", "Ativa"},
	{SubscriptionCanceled, "Canceled", "Cancelada"},
	{SubscriptionClosed, "Closed", "Encerrada"},
	{SubscriptionStopped, "Stopped", "Interrompida"},
	{SubscriptionWaitingPayment, "WaitingPayment", "Aguardando pagamento"},
	{SubscriptionInactive, "Inactive", "Inativa"},
})

func (s SubscriptionStatus) String() string {
	if e, ok := SubscriptionStatuses.Get(s); ok {
		return e.Name
	}
	return "Unknown"
}

func (s SubscriptionStatus) Description() string {
	if e, ok := SubscriptionStatuses.Get(s); ok {
		return e.Description
	}
	return ""
}

// IsSuccessful reports whether a sale that reached this status counts as completed.
func (s SubscriptionStatus) IsSuccessful() bool {
	return s == SubscriptionActive || s == SubscriptionWaitingPayment
}

type PaymentStatus int

const (
	PaymentNotSend          PaymentStatus = 1
	PaymentAuthorized       PaymentStatus = 2
	PaymentCaptured         PaymentStatus = 3
	PaymentDenied           PaymentStatus = 4
	PaymentReversed         PaymentStatus = 5
	PaymentPendingBoleto    PaymentStatus = 6
	PaymentChargeback       PaymentStatus = 7
	PaymentPayedBoleto      PaymentStatus = 8
	PaymentNotCompensated   PaymentStatus = 9
	PaymentPendingPix       PaymentStatus = 10
	PaymentPayedPix         PaymentStatus = 11
	PaymentUnavailablePix   PaymentStatus = 12
	PaymentCancel           PaymentStatus = 13
	PaymentPayExternal      PaymentStatus = 14
	PaymentCancelByContract PaymentStatus = 15
	PaymentFree             PaymentStatus = 16
)

var PaymentStatuses = NewTable("payment status", []Entry[PaymentStatus]{
	{PaymentNotSend, "NotSend", "Ainda não enviada para operadora de Cartão"},
	{PaymentAuthorized, "Authorized", "Autorizado"},
	{PaymentCaptured, "Captured", "Capturada na Operadora de Cartão"},
	{PaymentDenied, "Denied", "Negada na Operadora de Cartão"},
	{PaymentReversed, "Reversed", "Estornada na Operadora de Cartão"},
	{PaymentPendingBoleto, "PendingBoleto", "Boleto em aberto"},
	{PaymentChargeback, "Chargeback", "Estorno por Chargeback"},
	{PaymentPayedBoleto, "PayedBoleto", "Boleto compensado"},
	{PaymentNotCompensated, "NotCompensated", "Boleto baixado por decurso de prazo"},
	{PaymentPendingPix, "PendingPix", "Pix em aberto"},
	{PaymentPayedPix, "PayedPix", "Pix pago"},
	{PaymentUnavailablePix, "UnavailablePix", "Pix indisponível para pagamento"},
	{PaymentCancel, "Cancel", "Cancelada manualmente"},
	{PaymentPayExternal, "PayExternal", "Paga fora do sistema"},
	{PaymentCancelByContract, "CancelByContract", "Cancelada ao cancelar a cobrança"},
	{PaymentFree, "Free", "Isento"},
})

func (s PaymentStatus) String() string {
	if e, ok := PaymentStatuses.Get(s); ok {
		return e.Name
	}
	return "Unknown"
}

func (s PaymentStatus) Description() string {
	if e, ok := PaymentStatuses.Get(s); ok {
		return e.Description
	}
	return ""
}

func MapSubscriptionStatus(token string) (Entry[SubscriptionStatus], bool) {
	return SubscriptionStatuses.Lookup(token)
}

func MapPaymentStatus(token string) (Entry[PaymentStatus], bool) {
	return PaymentStatuses.Lookup(token)
}
