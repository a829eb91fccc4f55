package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adityarahman/booking-management/internal/booking"
)

var (
	listSearch   string
	listStatus   string
	listDateFrom string
	listDateTo   string

	createDate  string
	createStart string
	createEnd   string
	createNotes string
	createForce bool

	updateID     int64
	updateDate   string
	updateStart  string
	updateEnd    string
	updateStatus string
	updateNotes  string

	deleteID int64

	checkID    int64
	checkDate  string
	checkStart string
	checkEnd   string
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Manage bookings",
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		filter := booking.ListFilter{
			Search:   listSearch,
			Status:   listStatus,
			DateFrom: listDateFrom,
			DateTo:   listDateTo,
		}
		if err := s.store.Fetch(context.Background(), filter); err != nil {
			exitWithAPIError("failed to fetch bookings", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tSTART\tEND\tSTATUS\tNOTES")
		for _, b := range s.store.Bookings() {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Date, b.StartTime, b.EndTime, b.Status, b.Notes)
		}
		w.Flush()
	},
}

var bookingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a booking",
	Long:  `Create a booking, first checking the requested slot against existing bookings for overlaps and awkward turnaround gaps.`,
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		ctx := context.Background()
		if err := s.store.Fetch(ctx, booking.ListFilter{DateFrom: createDate, DateTo: createDate}); err != nil {
			exitWithAPIError("failed to fetch existing bookings", err)
		}

		candidate := booking.Booking{
			Date:      createDate,
			StartTime: createStart,
			EndTime:   createEnd,
		}
		if s.store.CheckConflict(candidate) {
			fmt.Fprintln(os.Stderr, "The requested slot overlaps an existing booking.")
			os.Exit(1)
		}
		if s.store.CheckGap(candidate) && !createForce {
			fmt.Fprintln(os.Stderr, "The requested slot leaves an impractical gap next to an existing booking (between 15 and 120 minutes). Use --force to book anyway.")
			os.Exit(1)
		}

		created, err := s.store.Create(ctx, booking.CreateBookingData{
			Date:      createDate,
			StartTime: createStart,
			EndTime:   createEnd,
			Notes:     createNotes,
		})
		if err != nil {
			exitWithAPIError("failed to create booking", err)
		}

		fmt.Printf("Created booking %d: %s %s-%s (%s)\n", created.ID, created.Date, created.StartTime, created.EndTime, created.Status)
	},
}

var bookingsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a booking",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		data := booking.UpdateBookingData{}
		if cmd.Flags().Changed("date") {
			data.Date = &updateDate
		}
		if cmd.Flags().Changed("start") {
			data.StartTime = &updateStart
		}
		if cmd.Flags().Changed("end") {
			data.EndTime = &updateEnd
		}
		if cmd.Flags().Changed("status") {
			data.Status = &updateStatus
		}
		if cmd.Flags().Changed("notes") {
			data.Notes = &updateNotes
		}

		updated, err := s.store.Update(context.Background(), updateID, data)
		if err != nil {
			exitWithAPIError("failed to update booking", err)
		}

		fmt.Printf("Updated booking %d: %s %s-%s (%s)\n", updated.ID, updated.Date, updated.StartTime, updated.EndTime, updated.Status)
	},
}

var bookingsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a booking",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		if err := s.store.Delete(context.Background(), deleteID); err != nil {
			exitWithAPIError("failed to delete booking", err)
		}

		fmt.Printf("Deleted booking %d\n", deleteID)
	},
}

var bookingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a candidate slot for conflicts and gap violations",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		ctx := context.Background()
		if err := s.store.Fetch(ctx, booking.ListFilter{DateFrom: checkDate, DateTo: checkDate}); err != nil {
			exitWithAPIError("failed to fetch existing bookings", err)
		}

		candidate := booking.Booking{
			ID:        checkID,
			Date:      checkDate,
			StartTime: checkStart,
			EndTime:   checkEnd,
		}

		conflict := s.store.CheckConflict(candidate)
		gap := s.store.CheckGap(candidate)

		fmt.Printf("conflict: %v\n", conflict)
		fmt.Printf("gap violation: %v\n", gap)
		if conflict || gap {
			os.Exit(1)
		}
	},
}

func init() {
	bookingsListCmd.Flags().StringVar(&listSearch, "search", "", "match against notes")
	bookingsListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	bookingsListCmd.Flags().StringVar(&listDateFrom, "date-from", "", "earliest date (YYYY-MM-DD)")
	bookingsListCmd.Flags().StringVar(&listDateTo, "date-to", "", "latest date (YYYY-MM-DD)")

	bookingsCreateCmd.Flags().StringVar(&createDate, "date", "", "booking date (YYYY-MM-DD)")
	bookingsCreateCmd.Flags().StringVar(&createStart, "start", "", "start time (HH:MM:SS)")
	bookingsCreateCmd.Flags().StringVar(&createEnd, "end", "", "end time (HH:MM:SS)")
	bookingsCreateCmd.Flags().StringVar(&createNotes, "notes", "", "optional notes")
	bookingsCreateCmd.Flags().BoolVar(&createForce, "force", false, "book even with a gap violation")
	bookingsCreateCmd.MarkFlagRequired("date")
	bookingsCreateCmd.MarkFlagRequired("start")
	bookingsCreateCmd.MarkFlagRequired("end")

	bookingsUpdateCmd.Flags().Int64Var(&updateID, "id", 0, "booking id")
	bookingsUpdateCmd.Flags().StringVar(&updateDate, "date", "", "booking date (YYYY-MM-DD)")
	bookingsUpdateCmd.Flags().StringVar(&updateStart, "start", "", "start time (HH:MM:SS)")
	bookingsUpdateCmd.Flags().StringVar(&updateEnd, "end", "", "end time (HH:MM:SS)")
	bookingsUpdateCmd.Flags().StringVar(&updateStatus, "status", "", "booking status")
	bookingsUpdateCmd.Flags().StringVar(&updateNotes, "notes", "", "notes")
	bookingsUpdateCmd.MarkFlagRequired("id")

	bookingsDeleteCmd.Flags().Int64Var(&deleteID, "id", 0, "booking id")
	bookingsDeleteCmd.MarkFlagRequired("id")

	bookingsCheckCmd.Flags().Int64Var(&checkID, "id", 0, "booking id to exclude (when rescheduling)")
	bookingsCheckCmd.Flags().StringVar(&checkDate, "date", "", "booking date (YYYY-MM-DD)")
	bookingsCheckCmd.Flags().StringVar(&checkStart, "start", "", "start time (HH:MM:SS)")
	bookingsCheckCmd.Flags().StringVar(&checkEnd, "end", "", "end time (HH:MM:SS)")
	bookingsCheckCmd.MarkFlagRequired("date")
	bookingsCheckCmd.MarkFlagRequired("start")
	bookingsCheckCmd.MarkFlagRequired("end")

	bookingsCmd.AddCommand(bookingsListCmd)
	bookingsCmd.AddCommand(bookingsCreateCmd)
	bookingsCmd.AddCommand(bookingsUpdateCmd)
	bookingsCmd.AddCommand(bookingsDeleteCmd)
	bookingsCmd.AddCommand(bookingsCheckCmd)
}
