package gateway

import (
	"strconv"
)

const (
	PeriodicityMonthly      = "monthly"
	PaymentMethodCreditCard = "creditcard"
)

// Token is the response of the credential exchange on POST /token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

type CustomerRequest struct {
	MyID     string   `json:"myId,omitempty"`
	Name     string   `json:"name"`
	Document string   `json:"document,omitempty"`
	Emails   []string `json:"emails"`
	Phones   []string `json:"phones"`
}

type Customer struct {
	MyID       string   `json:"myId"`
	GalaxPayID int64    `json:"galaxPayId"`
	Name       string   `json:"name"`
	Document   string   `json:"document"`
	Emails     []string `json:"emails"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

// ID returns the gateway identifier, or "" when the gateway did not assign one.
func (c Customer) ID() string {
	if c.GalaxPayID <= 0 {
		return ""
	}
	return strconv.FormatInt(c.GalaxPayID, 10)
}

type CustomerSearchResponse struct {
	TotalQtdFoundInPage int        `json:"totalQtdFoundInPage"`
	Customers           []Customer `json:"Customers"`
}

type CustomerEnvelope struct {
	Type     bool      `json:"type"`
	Customer *Customer `json:"Customer"`
}

type Card struct {
	Number     string `json:"number"`
	ExpMonth   string `json:"expMonth"`
	ExpYear    string `json:"expYear"`
	Cvv        string `json:"cvv"`
	HolderName string `json:"holderName"`
}

type SubscriptionCustomer struct {
	GalaxPayID int64    `json:"galaxPayId"`
	Name       string   `json:"name"`
	Emails     []string `json:"emails"`
}

type SubscriptionMetadata struct {
	CustomerID string `json:"customerId,omitempty"`
	SellerID   string `json:"sellerId,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// SubscriptionRequest creates a plan-based subscription. Value is in minor units.
type SubscriptionRequest struct {
	MyID                string                `json:"myId"`
	PlanID              string                `json:"planId"`
	Periodicity         string                `json:"periodicity"`
	MainPaymentMethodID string                `json:"mainPaymentMethodId"`
	Quantity            int                   `json:"quantity"`
	Value               int64                 `json:"value"`
	FirstPayDayDate     string                `json:"firstPayDayDate"`
	Card                Card                  `json:"card"`
	Customer            SubscriptionCustomer  `json:"Customer"`
	Description         string                `json:"description,omitempty"`
	StartDate           string                `json:"startDate,omitempty"`
	PromoCode           string                `json:"promoCode,omitempty"`
	Metadata            *SubscriptionMetadata `json:"metadata,omitempty"`
}

type Transaction struct {
	GalaxPayID        int64  `json:"galaxPayId"`
	Value             int64  `json:"value"`
	Payday            string `json:"payday"`
	PaydayDate        string `json:"paydayDate"`
	Installment       int    `json:"installment"`
	Status            string `json:"status"`
	StatusDescription string `json:"statusDescription"`
	StatusDate        string `json:"statusDate"`
	CreatedAt         string `json:"createdAt"`
}

func (t Transaction) ID() string {
	if t.GalaxPayID <= 0 {
		return ""
	}
	return strconv.FormatInt(t.GalaxPayID, 10)
}

type Subscription struct {
	MyID                string        `json:"myId"`
	GalaxPayID          int64         `json:"galaxPayId"`
	Value               int64         `json:"value"`
	PaymentLink         string        `json:"paymentLink"`
	MainPaymentMethodID string        `json:"mainPaymentMethodId"`
	Status              string        `json:"status"`
	Quantity            int           `json:"quantity"`
	Periodicity         string        `json:"periodicity"`
	FirstPayDayDate     string        `json:"firstPayDayDate"`
	CreatedAt           string        `json:"createdAt"`
	UpdatedAt           string        `json:"updatedAt"`
	Transactions        []Transaction `json:"Transactions"`
	ErrorMessage        string        `json:"errorMessage,omitempty"`
	ErrorCode           string        `json:"errorCode,omitempty"`
}

func (s Subscription) ID() string {
	if s.GalaxPayID <= 0 {
		return ""
	}
	return strconv.FormatInt(s.GalaxPayID, 10)
}

type ErrorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type SubscriptionEnvelope struct {
	Type         bool          `json:"type"`
	Subscription *Subscription `json:"Subscription"`
	Error        *ErrorBody    `json:"error,omitempty"`
}

type CancelSubscriptionRequest struct {
	Reason            string `json:"reason,omitempty"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

type UpdateSubscriptionRequest struct {
	PlanID   string                `json:"plan_id,omitempty"`
	Card     *Card                 `json:"card,omitempty"`
	Metadata *SubscriptionMetadata `json:"metadata,omitempty"`
}
