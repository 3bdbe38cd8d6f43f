package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
	"github.com/frahmantamala/subscription-sales/internal/gateway"
	"github.com/frahmantamala/subscription-sales/pkg/logger"
)

var subscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "Payment gateway subscription operations",
	Long:  `Inspect, cancel or update subscriptions directly on the payment gateway`,
}

var getSubscriptionCmd = &cobra.Command{
	Use:   "get [subscription-id]",
	Short: "Fetch a gateway subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGatewayClient(func(ctx context.Context, client *gateway.Client) (*gatewaytypes.Subscription, error) {
			return client.GetSubscription(ctx, args[0])
		})
	},
}

var (
	cancelReason      string
	cancelAtPeriodEnd bool
)

var cancelSubscriptionCmd = &cobra.Command{
	Use:   "cancel [subscription-id]",
	Short: "Cancel a gateway subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withGatewayClient(func(ctx context.Context, client *gateway.Client) (*gatewaytypes.Subscription, error) {
			return client.CancelSubscription(ctx, args[0], gatewaytypes.CancelSubscriptionRequest{
				Reason:            cancelReason,
				CancelAtPeriodEnd: cancelAtPeriodEnd,
			})
		})
	},
}

var (
	updatePlanID string
	updateNotes  string
)

var updateSubscriptionCmd = &cobra.Command{
	Use:   "update [subscription-id]",
	Short: "Move a gateway subscription to another plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if updatePlanID == "" && updateNotes == "" {
			return fmt.Errorf("nothing to update: set --plan-id or --notes")
		}

		req := gatewaytypes.UpdateSubscriptionRequest{PlanID: updatePlanID}
		if updateNotes != "" {
			req.Metadata = &gatewaytypes.SubscriptionMetadata{Notes: updateNotes}
		}

		return withGatewayClient(func(ctx context.Context, client *gateway.Client) (*gatewaytypes.Subscription, error) {
			return client.UpdateSubscription(ctx, args[0], req)
		})
	},
}

// withGatewayClient runs op against a configured gateway client and prints the
// resulting subscription as JSON.
func withGatewayClient(op func(ctx context.Context, client *gateway.Client) (*gatewaytypes.Subscription, error)) error {
	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}

	client, err := gateway.NewClient(gateway.Config{
		BaseURL:      cfg.Gateway.BaseURL,
		ClientID:     cfg.Gateway.ClientID,
		ClientSecret: cfg.Gateway.ClientSecret,
		Scope:        cfg.Gateway.Scope,
		Timeout:      cfg.Gateway.RequestTimeout(),
	}, logger.L())
	if err != nil {
		return err
	}

	subscription, err := op(context.Background(), client)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(subscription)
}

func init() {
	cancelSubscriptionCmd.Flags().StringVar(&cancelReason, "reason", "", "Cancellation reason sent to the gateway")
	cancelSubscriptionCmd.Flags().BoolVar(&cancelAtPeriodEnd, "at-period-end", false, "Keep the subscription until the current period ends")

	updateSubscriptionCmd.Flags().StringVar(&updatePlanID, "plan-id", "", "Gateway plan to move the subscription to")
	updateSubscriptionCmd.Flags().StringVar(&updateNotes, "notes", "", "Notes stored in the subscription metadata")

	subscriptionCmd.AddCommand(getSubscriptionCmd)
	subscriptionCmd.AddCommand(cancelSubscriptionCmd)
	subscriptionCmd.AddCommand(updateSubscriptionCmd)

	rootCmd.AddCommand(subscriptionCmd)
}
