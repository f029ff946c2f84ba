package main

import (
	"context"
	"time"

	"duesbook/internal/api/handler/v1handler"
	"duesbook/pkg/domain"
	"duesbook/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// paymentCommand groups the payment subcommands.
func paymentCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Creates, settles and inspects payments",
	}

	cmd.AddCommand(
		paymentCreateCommand(a),
		paymentPaidCommand(a),
		paymentShowCommand(a),
	)

	return cmd
}

func paymentCreateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Records a pending payment for a member",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			rawMember, _ := cmd.Flags().GetString("member")
			rawAmount, _ := cmd.Flags().GetString("amount")
			rawDue, _ := cmd.Flags().GetString("due")

			memberID, err := domain.ParseMemberID(rawMember)
			if err != nil {
				logger.Fatal(ctx, "invalid member id", zap.Error(err))
			}
			amount, err := decimal.NewFromString(rawAmount)
			if err != nil {
				logger.Fatal(ctx, "invalid amount", zap.Error(err))
			}
			dueDate, err := time.Parse(v1handler.DateLayout, rawDue)
			if err != nil {
				logger.Fatal(ctx, "invalid due date", zap.Error(err))
			}

			pgsql, closeStrg := a.postgres(ctx)
			defer closeStrg()

			svc := a.billing(ctx, pgsql)
			p, err := svc.CreatePayment(ctx, memberID, amount, dueDate)
			if err != nil {
				logger.Fatal(ctx, "could not create payment", zap.Error(err))
			}
			p.Status = svc.DeriveStatus(*p, svc.Today())

			printJSON(ctx, v1handler.DomainPaymentToView(p))
		},
	}

	cmd.Flags().String("member", "", "Member ID")
	cmd.Flags().String("amount", "", "Amount, e.g. 49.90")
	cmd.Flags().String("due", "", "Due date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func paymentPaidCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paid <payment-id>",
		Short: "Marks a payment as paid",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			id, err := domain.ParsePaymentID(args[0])
			if err != nil {
				logger.Fatal(ctx, "invalid payment id", zap.Error(err))
			}

			pgsql, closeStrg := a.postgres(ctx)
			defer closeStrg()

			p, err := a.billing(ctx, pgsql).MarkPaid(ctx, id)
			if err != nil {
				logger.Fatal(ctx, "could not mark payment as paid", zap.Error(err))
			}

			printJSON(ctx, v1handler.DomainPaymentToView(p))
		},
	}

	return cmd
}

func paymentShowCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <payment-id>",
		Short: "Shows a payment with its status derived for a date",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			rawAsOf, _ := cmd.Flags().GetString("as-of")

			id, err := domain.ParsePaymentID(args[0])
			if err != nil {
				logger.Fatal(ctx, "invalid payment id", zap.Error(err))
			}
			var asOf time.Time
			if rawAsOf != "" {
				if asOf, err = time.Parse(v1handler.DateLayout, rawAsOf); err != nil {
					logger.Fatal(ctx, "invalid as-of date", zap.Error(err))
				}
			}

			pgsql, closeStrg := a.postgres(ctx)
			defer closeStrg()

			p, err := a.billing(ctx, pgsql).Payment(ctx, id, asOf)
			if err != nil {
				logger.Fatal(ctx, "could not get payment", zap.Error(err))
			}

			printJSON(ctx, v1handler.DomainPaymentToView(p))
		},
	}

	cmd.Flags().String("as-of", "", "Date to derive the status for, YYYY-MM-DD (default today)")

	return cmd
}
