package main

import (
	"context"
	"log"
	"os"
	"time"

	"medibook-backend/internal/auth"
	"medibook-backend/internal/config"
	"medibook-backend/internal/db"
	"medibook-backend/internal/models"
	"medibook-backend/internal/schedule"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedDoctor struct {
	Name      string
	Email     string
	Specialty string
	State     string
	City      string
	Pincode   string
	StartTime string
	Duration  int
	Slots     int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	adminEmail := envOrDefault("ADMIN_EMAIL", "admin@medibook.local")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		log.Println("seed admin: ADMIN_PASSWORD missing, skipping")
	} else if err := seedUser(ctx, cols, adminEmail, "Admin", adminPassword, models.RoleAdmin, cfg.Timezone); err != nil {
		log.Fatalf("seed admin error: %v", err)
	}

	doctors := []seedDoctor{
		{Name: "Dr. Asha Rao", Email: "asha.rao@medibook.local", Specialty: "Cardiology", State: "Karnataka", City: "Bengaluru", Pincode: "560001", StartTime: "09:00", Duration: 20, Slots: 12},
		{Name: "Dr. Vikram Menon", Email: "vikram.menon@medibook.local", Specialty: "Dermatology", State: "Kerala", City: "Kochi", Pincode: "682001", StartTime: "10:00", Duration: 15, Slots: 16},
		{Name: "Dr. Neha Kulkarni", Email: "neha.kulkarni@medibook.local", Specialty: "Pediatrics", State: "Maharashtra", City: "Pune", Pincode: "411001", StartTime: "08:30", Duration: 30, Slots: 8},
	}

	demoPassword := envOrDefault("DEMO_PASSWORD", "changeme-demo")
	tomorrow := schedule.FormatDate(time.Now().In(cfg.Timezone).AddDate(0, 0, 1))

	for _, doc := range doctors {
		if err := seedDoctorUser(ctx, cols, doc, demoPassword, cfg.Timezone); err != nil {
			log.Fatalf("seed doctor error for %s: %v", doc.Email, err)
		}
		if err := seedAvailability(ctx, cols, doc, tomorrow, cfg.Timezone); err != nil {
			log.Fatalf("seed availability error for %s: %v", doc.Email, err)
		}
	}

	log.Println("seed completed")
}

func seedUser(ctx context.Context, cols *db.Collections, email, name, password, role string, loc *time.Location) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"role":         role,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"name":      name,
			"email":     email,
			"createdAt": time.Now().In(loc),
		},
	}
	_, err = cols.Users.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	return err
}

func seedDoctorUser(ctx context.Context, cols *db.Collections, doc seedDoctor, password string, loc *time.Location) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{
			"passwordHash": hash,
			"role":         models.RoleDoctor,
			"specialty":    doc.Specialty,
			"state":        doc.State,
			"city":         doc.City,
			"pincode":      doc.Pincode,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"name":      doc.Name,
			"email":     doc.Email,
			"createdAt": time.Now().In(loc),
		},
	}
	_, err = cols.Users.UpdateOne(ctx, bson.M{"email": doc.Email}, update, options.Update().SetUpsert(true))
	return err
}

func seedAvailability(ctx context.Context, cols *db.Collections, doc seedDoctor, date string, loc *time.Location) error {
	var user models.User
	if err := cols.Users.FindOne(ctx, bson.M{"email": doc.Email}).Decode(&user); err != nil {
		return err
	}

	// One declaration per doctor per date; re-running the seed refreshes it
	// instead of stacking duplicates.
	update := bson.M{
		"$set": bson.M{
			"startTime":       doc.StartTime,
			"patientDuration": doc.Duration,
			"totalSlots":      doc.Slots,
			"createdAt":       time.Now().In(loc),
		},
		"$setOnInsert": bson.M{
			"_id":      primitive.NewObjectID().Hex(),
			"doctorId": user.ID,
			"date":     date,
		},
	}
	_, err := cols.Availabilities.UpdateOne(ctx, bson.M{"doctorId": user.ID, "date": date}, update, options.Update().SetUpsert(true))
	return err
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
