package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/safemama-pikin/outreach/internal/adapters/database"
	"github.com/safemama-pikin/outreach/internal/domain/entities"
	"github.com/safemama-pikin/outreach/internal/infrastructure/clients/postgres"
	"github.com/safemama-pikin/outreach/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	appointmentRepo := database.NewAppointmentAdapter(pgClient)
	volunteerRepo := database.NewVolunteerAdapter(pgClient)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				webhook_events,
				master_appointments,
				volunteers,
				settings
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed volunteers across the escalation tiers
	volunteers := []entities.Volunteer{
		{ID: uuid.New().String(), Name: "Amina Bello", Email: "amina.bello@example.org", Phone: "+2348031110001", Role: entities.RoleLocal, SpokenLanguages: []string{"Hausa", "English"}, Location: "Kano", Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Chinedu Okafor", Email: "chinedu.okafor@example.org", Phone: "+2348031110002", Role: entities.RoleLocal, SpokenLanguages: []string{"Igbo", "English"}, Location: "Enugu", Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Funke Adeyemi", Email: "funke.adeyemi@example.org", Phone: "+2348031110003", Role: entities.RoleLocal, SpokenLanguages: []string{"Yoruba", "English", "Pidgin"}, Location: "Ibadan", Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Hauwa Suleiman", Email: "hauwa.suleiman@example.org", Phone: "+2348031110004", Role: entities.RoleState, SpokenLanguages: []string{"Hausa", "English"}, Location: "Kaduna", Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Ngozi Eze", Email: "ngozi.eze@example.org", Phone: "+2348031110005", Role: entities.RoleState, SpokenLanguages: []string{"Igbo", "Yoruba", "English"}, Location: "Lagos", Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "Tunde Bakare", Email: "tunde.bakare@example.org", Phone: "+2348031110006", Role: entities.RoleNational, SpokenLanguages: []string{"English", "Pidgin", "Yoruba", "Hausa"}, Location: "Abuja", Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}

	for _, v := range volunteers {
		if err := volunteerRepo.Create(ctx, &v); err != nil {
			log.Printf("Failed to create volunteer %s: %v", v.Name, err)
		}
	}
	log.Printf("Seeded %d volunteers", len(volunteers))

	// 2. Seed appointments due inside the outreach lead window
	appointments := []entities.Appointment{
		{
			ID:                  uuid.New().String(),
			PatientID:           uuid.New().String(),
			PatientName:         "Maryam Ibrahim",
			PatientPhone:        "+2348051230001",
			PreferredLanguage:   "Hausa",
			Age:                 27,
			BloodGroup:          entities.BloodGroupOPositive,
			Genotype:            entities.GenotypeAA,
			ServiceType:         entities.ServiceTypeAntenatal,
			Location:            "Kano",
			AppointmentDatetime: time.Now().Add(6 * time.Hour),
			Status:              entities.AppointmentStatusPending,
			HandledByAI:         true,
			CreatedAt:           time.Now(),
			UpdatedAt:           time.Now(),
		},
		{
			ID:                  uuid.New().String(),
			PatientID:           uuid.New().String(),
			PatientName:         "Adaeze Nwosu",
			PatientPhone:        "+2348051230002",
			PreferredLanguage:   "Igbo",
			Age:                 31,
			BloodGroup:          entities.BloodGroupAPositive,
			Genotype:            entities.GenotypeAS,
			ServiceType:         entities.ServiceTypeImmunization,
			Location:            "Enugu",
			AppointmentDatetime: time.Now().Add(12 * time.Hour),
			Status:              entities.AppointmentStatusPending,
			HandledByAI:         true,
			CreatedAt:           time.Now(),
			UpdatedAt:           time.Now(),
		},
		{
			ID:                  uuid.New().String(),
			PatientID:           uuid.New().String(),
			PatientName:         "Bisi Olawale",
			PatientPhone:        "+2348051230003",
			PreferredLanguage:   "Yoruba",
			Age:                 24,
			BloodGroup:          entities.BloodGroupBPositive,
			Genotype:            entities.GenotypeAA,
			ServiceType:         entities.ServiceTypePostnatal,
			Location:            "Ibadan",
			AppointmentDatetime: time.Now().Add(20 * time.Hour),
			Status:              entities.AppointmentStatusPending,
			HandledByAI:         true,
			CreatedAt:           time.Now(),
			UpdatedAt:           time.Now(),
		},
	}

	for _, a := range appointments {
		if err := appointmentRepo.Create(ctx, &a); err != nil {
			log.Printf("Failed to create appointment for %s: %v", a.PatientName, err)
		}
	}
	log.Printf("Seeded %d appointments", len(appointments))

	// 3. Seed settings the services read at runtime
	settings := map[string]string{
		string(entities.SettingWhatsAppTemplate):  "volunteer_escalation",
		string(entities.SettingWhatsAppDefLocale): "en",
	}
	for key, value := range settings {
		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`, key, value, time.Now())
		if err != nil {
			log.Printf("Failed to seed setting %s: %v", key, err)
		}
	}
	log.Printf("Seeded %d settings", len(settings))

	log.Println("Seeding complete")
}
