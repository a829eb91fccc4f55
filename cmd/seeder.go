package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/adityarahman/booking-management/internal/booking"
	"github.com/adityarahman/booking-management/internal/server/storage"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo account and bookings for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		repo, err := storage.Open(cfg.Database.Driver, cfg.Database.Source)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		password := "password123"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		demoEmail := "demo@mail.com"
		user, err := repo.GetUserByEmail(demoEmail)
		if err != nil {
			user = &storage.User{
				Name:         "Demo User",
				Email:        demoEmail,
				PasswordHash: string(hash),
			}
			if err := repo.CreateUser(user); err != nil {
				log.Fatalf("failed to insert demo user: %v", err)
			}
			fmt.Println("Seeded demo user:", demoEmail, "password:", password)
		} else {
			fmt.Println("demo user already exists:", demoEmail)
		}

		existing, err := repo.ListBookings(user.ID, storage.BookingFilter{})
		if err != nil {
			log.Fatalf("failed to list bookings: %v", err)
		}
		if len(existing) > 0 {
			fmt.Println("demo bookings already present, skipping")
			return
		}

		tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
		samples := []storage.Booking{
			{UserID: user.ID, Date: tomorrow, StartTime: "09:00:00", EndTime: "10:00:00", Status: booking.StatusConfirmed, Notes: "morning consultation"},
			{UserID: user.ID, Date: tomorrow, StartTime: "10:00:00", EndTime: "11:00:00", Status: booking.StatusPending, Notes: "follow-up"},
			{UserID: user.ID, Date: tomorrow, StartTime: "14:00:00", EndTime: "15:30:00", Status: booking.StatusConfirmed, Notes: "afternoon session"},
		}
		for i := range samples {
			if err := repo.CreateBooking(&samples[i]); err != nil {
				log.Fatalf("failed to insert booking: %v", err)
			}
		}

		fmt.Printf("Seeded %d bookings for %s on %s\n", len(samples), demoEmail, tomorrow)
	},
}
