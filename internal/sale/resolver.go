package sale

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/subscription-sales/internal"
	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
)

type CustomerProfile struct {
	LocalID  uuid.UUID
	Name     string
	Email    string
	Document string
	Phone    string
}

// CustomerResolver returns the gateway customer for an email, creating it
// only when the gateway reports no match. Without a locker two concurrent
// sales for the same new email can both create a customer.
type CustomerResolver struct {
	gateway Gateway
	locker  EmailLocker
	logger  *slog.Logger
}

func NewCustomerResolver(gateway Gateway, locker EmailLocker, logger *slog.Logger) *CustomerResolver {
	return &CustomerResolver{
		gateway: gateway,
		locker:  locker,
		logger:  logger,
	}
}

func (r *CustomerResolver) Resolve(ctx context.Context, profile CustomerProfile) (string, *internal.AppError) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, email)
		if err != nil {
			r.logger.Error("failed to acquire customer lock", "error", err)
			return "", internal.NewExternalError(MessageLookupFailed, internal.ErrCodeGatewayLookupFailed, err)
		}
		defer unlock()
	}

	found, err := r.gateway.FindCustomersByEmail(ctx, email)
	if err != nil {
		r.logger.Error("gateway customer lookup failed", "error", err)
		return "", internal.NewExternalError(MessageLookupFailed, internal.ErrCodeGatewayLookupFailed, err)
	}

	if len(found) > 0 {
		id := found[0].ID()
		if id == "" {
			return "", internal.NewExternalError(MessageLookupFailed, internal.ErrCodeGatewayLookupFailed, nil)
		}
		r.logger.Debug("reusing gateway customer", "gateway_customer_id", id, "matches", len(found))
		return id, nil
	}

	phones := []string{}
	if profile.Phone != "" {
		phones = append(phones, profile.Phone)
	}

	created, err := r.gateway.CreateCustomer(ctx, gatewaytypes.CustomerRequest{
		MyID:     profile.LocalID.String(),
		Name:     profile.Name,
		Document: profile.Document,
		Emails:   []string{email},
		Phones:   phones,
	})
	if err != nil || created == nil || created.ID() == "" {
		r.logger.Error("gateway customer creation failed", "error", err)
		return "", internal.NewExternalError(MessageCustomerFailed, internal.ErrCodeGatewayCustomerCreateFailed, err)
	}

	r.logger.Info("gateway customer created", "gateway_customer_id", created.ID(), "customer_id", profile.LocalID)
	return created.ID(), nil
}
