package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/pms-backend/internal/domain"
	"github.com/heartmarshall/pms-backend/internal/service/ari"
)

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo [event-id]",
		Short: "Restore the rows captured by an event's snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.engine.Undo(cmd.Context(), rt.propertyID, args[0])
			if err != nil {
				return err
			}
			if result.AlreadyUndone {
				fmt.Fprintln(cmd.OutOrStdout(), "warning: event had already been undone")
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}
}

func priceCmd() *cobra.Command {
	var roomType, plan, date string
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Resolve the effective price of a room type under a rate plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roomTypeID, err := uuid.Parse(roomType)
			if err != nil {
				return fmt.Errorf("--room-type: %w", err)
			}
			day, err := domain.ParseDate(date)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			price, err := rt.engine.ResolvePrice(cmd.Context(), rt.propertyID, roomTypeID, plan, day)
			if err != nil {
				return err
			}
			if price == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no price")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), price.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&roomType, "room-type", "", "room type id")
	cmd.Flags().StringVar(&plan, "plan", "", "rate plan code")
	cmd.Flags().StringVar(&date, "date", "", "stay date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("room-type")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func eventsCmd() *cobra.Command {
	var status string
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List audit events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			input := ari.ListEventsInput{Limit: limit}
			if status != "" {
				s := domain.AriEventStatus(status)
				input.Status = &s
			}
			events, err := rt.engine.ListEvents(cmd.Context(), rt.propertyID, input)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EVENT\tTYPE\tSTATUS\tROOM TYPE\tPLAN\tFROM\tTO\tUNDONE")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
					e.EventID, e.Type, e.Status, e.RoomTypeCode, e.RatePlanCode,
					e.DateFrom.Format(domain.DateLayout), e.DateTo.Format(domain.DateLayout), e.IsUndone())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (PENDING, APPLIED, ERROR, DEDUPED)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply [event-id]",
		Short: "Apply a deferred channel event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.channels.ApplyPending(cmd.Context(), rt.propertyID, args[0])
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", result.EventID, result.Status)
				for _, w := range result.Warnings {
					fmt.Fprintln(cmd.OutOrStdout(), "warning:", w)
				}
			}
			return err
		},
	}
}
