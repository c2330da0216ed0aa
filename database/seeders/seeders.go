package seeders

import (
	"log"
	"time"

	"neldrac_go/database"
	"neldrac_go/models"
	"neldrac_go/utils"

	"github.com/shopspring/decimal"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedCenters()
	SeedUsers()
	SeedClassrooms()
	SeedFeeStructures()

	log.Println("Database seeding completed successfully!")
}

// SeedCenters seeds the centers table
func SeedCenters() {
	var count int64
	database.DB.Model(&models.Center{}).Count(&count)
	if count > 0 {
		log.Println("Centers already seeded, skipping...")
		return
	}

	centers := []models.Center{
		{
			BaseModel: models.BaseModel{ID: 1},
			Name:      "Neldrac Kids Koramangala",
			Address:   "80 Feet Road, Koramangala, Bengaluru",
			Phone:     "080-41234567",
			Email:     "koramangala@neldrackids.com",
			Active:    true,
		},
		{
			BaseModel: models.BaseModel{ID: 2},
			Name:      "Neldrac Kids Whitefield",
			Address:   "ITPL Main Road, Whitefield, Bengaluru",
			Phone:     "080-41234568",
			Email:     "whitefield@neldrackids.com",
			Active:    true,
		},
	}

	for _, center := range centers {
		if err := database.DB.Create(&center).Error; err != nil {
			log.Printf("Error seeding center %s: %v", center.Name, err)
		}
	}

	log.Println("Centers seeded successfully")
}

// SeedUsers seeds the users table
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	// Hash the default password
	hashedPassword, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			BaseModel: models.BaseModel{ID: 1},
			Username:  "superadmin",
			Password:  hashedPassword,
			Email:     "superadmin@neldrackids.com",
			Phone:     "9812345670",
			Role:      "super_admin",
			CenterID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 2},
			Username:  "owner",
			Password:  hashedPassword,
			Email:     "owner@neldrackids.com",
			Phone:     "9812345671",
			Role:      "owner",
			CenterID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 3},
			Username:  "admin_krm",
			Password:  hashedPassword,
			Email:     "admin.koramangala@neldrackids.com",
			Phone:     "9812345672",
			Role:      "admin",
			CenterID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 4},
			Username:  "director_krm",
			Password:  hashedPassword,
			Email:     "director.koramangala@neldrackids.com",
			Phone:     "9812345673",
			Role:      "center_director",
			CenterID:  1,
			Status:    "active",
		},
		{
			BaseModel: models.BaseModel{ID: 5},
			Username:  "admin_wfd",
			Password:  hashedPassword,
			Email:     "admin.whitefield@neldrackids.com",
			Phone:     "9812345674",
			Role:      "admin",
			CenterID:  2,
			Status:    "active",
		},
	}

	for _, user := range users {
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", user.Username, err)
		}
	}

	log.Println("Users seeded successfully")
}

// SeedClassrooms seeds the classrooms table
func SeedClassrooms() {
	var count int64
	database.DB.Model(&models.Classroom{}).Count(&count)
	if count > 0 {
		log.Println("Classrooms already seeded, skipping...")
		return
	}

	classrooms := []models.Classroom{
		{
			UUIDModel: models.UUIDModel{ID: "4f5a7c1e-1111-4a61-9e61-000000000001"},
			CenterID:  1,
			Name:      "Toddlers A",
			AgeGroup:  "1.5-2.5 years",
			Capacity:  12,
			Active:    true,
		},
		{
			UUIDModel: models.UUIDModel{ID: "4f5a7c1e-1111-4a61-9e61-000000000002"},
			CenterID:  1,
			Name:      "Playgroup A",
			AgeGroup:  "2.5-3.5 years",
			Capacity:  15,
			Active:    true,
		},
		{
			UUIDModel: models.UUIDModel{ID: "4f5a7c1e-1111-4a61-9e61-000000000003"},
			CenterID:  2,
			Name:      "Toddlers A",
			AgeGroup:  "1.5-2.5 years",
			Capacity:  12,
			Active:    true,
		},
	}

	for _, classroom := range classrooms {
		if err := database.DB.Create(&classroom).Error; err != nil {
			log.Printf("Error seeding classroom %s: %v", classroom.Name, err)
		}
	}

	log.Println("Classrooms seeded successfully")
}

// SeedFeeStructures seeds the pricing templates with components
func SeedFeeStructures() {
	var count int64
	database.DB.Model(&models.FeeStructure{}).Count(&count)
	if count > 0 {
		log.Println("Fee structures already seeded, skipping...")
		return
	}

	academicYear := time.Now().Format("2006")
	structures := []models.FeeStructure{
		{
			CenterID:                 1,
			ClassroomID:              "4f5a7c1e-1111-4a61-9e61-000000000001",
			ProgramName:              "Full Day Care",
			ServiceHours:             "9am-6pm",
			MonthlyFee:               decimal.NewFromInt(18000),
			RegistrationFee:          decimal.NewFromInt(5000),
			SecurityDeposit:          decimal.NewFromInt(10000),
			MaterialFee:              decimal.NewFromInt(3000),
			QuarterlyDiscountPercent: decimal.NewFromInt(5),
			AnnualDiscountPercent:    decimal.NewFromInt(10),
			BillingFrequency:         "Monthly",
			AgeGroup:                 "1.5-2.5 years",
			AcademicYear:             academicYear,
			IsActive:                 true,
			Components: []models.FeeComponent{
				{Name: "Registration Fee", Amount: decimal.NewFromInt(5000), ComponentType: models.ComponentTypeOneTime},
				{Name: "Kit Fee", Amount: decimal.NewFromInt(3000), ComponentType: models.ComponentTypeOneTime},
				{Name: "Meals", Amount: decimal.NewFromInt(2000), ComponentType: models.ComponentTypeRecurring, IsOptional: true},
			},
		},
		{
			CenterID:                 1,
			ClassroomID:              "4f5a7c1e-1111-4a61-9e61-000000000002",
			ProgramName:              "Playgroup Half Day",
			ServiceHours:             "9am-1pm",
			MonthlyFee:               decimal.NewFromInt(12000),
			RegistrationFee:          decimal.NewFromInt(5000),
			QuarterlyDiscountPercent: decimal.NewFromInt(5),
			AnnualDiscountPercent:    decimal.NewFromInt(10),
			BillingFrequency:         "Monthly",
			AgeGroup:                 "2.5-3.5 years",
			AcademicYear:             academicYear,
			IsActive:                 true,
			Components: []models.FeeComponent{
				{Name: "Registration Fee", Amount: decimal.NewFromInt(5000), ComponentType: models.ComponentTypeOneTime},
			},
		},
	}

	for _, structure := range structures {
		if err := database.DB.Create(&structure).Error; err != nil {
			log.Printf("Error seeding fee structure %s: %v", structure.ProgramName, err)
		}
	}

	log.Println("Fee structures seeded successfully")
}
