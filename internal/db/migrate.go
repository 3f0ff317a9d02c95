package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/vitalpoint/wellness-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate applies the schema and seeds immutable reference data.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Challenge{},
		&models.InsurancePlan{},
		&models.UserInsurance{},
		&models.DiscountHistory{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := ensureDefaultPlans(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// defaultPlans returns the built-in insurance plans created on first boot.
func defaultPlans() []models.InsurancePlan {
	now := time.Now().UTC()
	return []models.InsurancePlan{
		{
			Name:     "Basic Health Coverage",
			Type:     "BASIC",
			Premium:  200.00,
			Coverage: 100000.00,
			Features: datatypes.JSON([]byte(`{"medicalCoverage":true,"emergencyServices":true,"prescriptionDrugs":true,"annualCheckup":true}`)),
			MaxDiscount: 15,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Name:     "Premium Health Plan",
			Type:     "PREMIUM",
			Premium:  350.00,
			Coverage: 250000.00,
			Features: datatypes.JSON([]byte(`{"medicalCoverage":true,"emergencyServices":true,"prescriptionDrugs":true,"annualCheckup":true,"specialistConsultations":true,"mentalHealth":true,"preventiveCare":true,"wellnessPrograms":true}`)),
			MaxDiscount: 25,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Name:     "Family Coverage",
			Type:     "FAMILY",
			Premium:  500.00,
			Coverage: 500000.00,
			Features: datatypes.JSON([]byte(`{"medicalCoverage":true,"emergencyServices":true,"prescriptionDrugs":true,"annualCheckup":true,"specialistConsultations":true,"mentalHealth":true,"preventiveCare":true,"wellnessPrograms":true,"maternityBenefits":true,"dentalAndVision":true,"familyCheckups":true}`)),
			MaxDiscount: 30,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// ensureDefaultPlans inserts the sample plans when they are absent.
func ensureDefaultPlans(conn *gorm.DB) error {
	for _, plan := range defaultPlans() {
		var existing models.InsurancePlan
		errFind := conn.Where("name = ?", plan.Name).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: check plan %q: %w", plan.Name, errFind)
		}
		record := plan
		if errCreate := conn.Create(&record).Error; errCreate != nil {
			return fmt.Errorf("db: seed plan %q: %w", plan.Name, errCreate)
		}
	}
	return nil
}
