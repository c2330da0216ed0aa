package routes

import (
	"neldrac_go/config"
	"neldrac_go/controllers"
	"neldrac_go/middleware"
	"neldrac_go/services"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires the REST surface. Every group behind /api requires a
// valid JWT; per-operation role checks come from the policy table in
// middleware.Authorize.
func SetupRoutes(app *fiber.App) {
	billing := services.NewBillingService(config.AppConfig.InvoiceDueDays)
	documents := services.NewDocumentService(nil)

	authController := &controllers.AuthController{}
	enquiryController := &controllers.EnquiryController{}
	admissionController := controllers.NewAdmissionController()
	feeStructureController := &controllers.FeeStructureController{}
	invoiceController := controllers.NewInvoiceController(billing, documents)
	receiptController := controllers.NewReceiptController(billing, documents)
	logController := &controllers.LogController{}

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "neldrac_go",
		})
	})

	api := app.Group("/api")

	// Public auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)

	// Everything below requires a valid token
	protected := api.Use(middleware.JWTMiddleware())
	protected.Use(middleware.LogActivityMiddleware())

	auth.Get("/profile", authController.GetProfile)
	auth.Post("/logout", authController.Logout)
	auth.Post("/register", middleware.Authorize(middleware.OpManageUsers), authController.Register)
	auth.Post("/change-password", authController.ChangePassword)

	// Enquiry intake and lead tracking
	enquiries := protected.Group("/enquiries")
	enquiries.Post("/", middleware.Authorize(middleware.OpManageEnquiries), enquiryController.CreateEnquiry)
	enquiries.Get("/", middleware.Authorize(middleware.OpManageEnquiries), enquiryController.GetEnquiries)
	enquiries.Get("/check-company", middleware.Authorize(middleware.OpManageEnquiries), enquiryController.CheckCompany)
	enquiries.Get("/:id", middleware.Authorize(middleware.OpManageEnquiries), enquiryController.GetEnquiry)
	enquiries.Put("/:id", middleware.Authorize(middleware.OpManageEnquiries), enquiryController.UpdateEnquiry)

	// Admission workflow
	admissions := protected.Group("/admissions")
	admissions.Post("/submit-for-approval/:id", middleware.Authorize(middleware.OpSubmitAdmission), admissionController.SubmitForApproval)
	admissions.Get("/approvals/pending", middleware.Authorize(middleware.OpDecideAdmission), admissionController.GetPendingApprovals)
	admissions.Post("/approvals/:id/approve", middleware.Authorize(middleware.OpDecideAdmission), admissionController.ApproveAdmission)
	admissions.Post("/approvals/:id/reject", middleware.Authorize(middleware.OpDecideAdmission), admissionController.RejectAdmission)
	admissions.Post("/convert/:id", middleware.Authorize(middleware.OpConvertEnquiry), admissionController.ConvertEnquiry)

	// Fee structures
	feeStructures := protected.Group("/fee-structures")
	feeStructures.Post("/", middleware.Authorize(middleware.OpManageFees), feeStructureController.CreateFeeStructure)
	feeStructures.Get("/", middleware.Authorize(middleware.OpCalculateFees), feeStructureController.GetFeeStructures)
	feeStructures.Post("/calculate", middleware.Authorize(middleware.OpCalculateFees), feeStructureController.CalculateFee)
	feeStructures.Get("/:id", middleware.Authorize(middleware.OpCalculateFees), feeStructureController.GetFeeStructure)
	feeStructures.Delete("/:id", middleware.Authorize(middleware.OpManageFees), feeStructureController.DeactivateFeeStructure)

	// Invoices
	invoices := protected.Group("/invoices")
	invoices.Post("/generate-monthly", middleware.Authorize(middleware.OpIssueInvoices), invoiceController.GenerateMonthly)
	invoices.Get("/", middleware.Authorize(middleware.OpViewInvoices), invoiceController.GetInvoices)
	invoices.Get("/export", middleware.Authorize(middleware.OpViewInvoices), invoiceController.ExportInvoices)
	invoices.Get("/:id", middleware.Authorize(middleware.OpViewInvoices), invoiceController.GetInvoice)
	invoices.Patch("/:id/status", middleware.Authorize(middleware.OpIssueInvoices), invoiceController.UpdateStatus)
	invoices.Get("/:id/pdf", middleware.Authorize(middleware.OpViewInvoices), invoiceController.DownloadInvoice)

	// Receipts
	receipts := protected.Group("/receipts")
	receipts.Post("/", middleware.Authorize(middleware.OpManageReceipts), receiptController.CreateReceipt)
	receipts.Get("/", middleware.Authorize(middleware.OpViewReceipts), receiptController.GetReceipts)
	receipts.Get("/pending/overdue", middleware.Authorize(middleware.OpViewReceipts), receiptController.GetOverdueReceipts)
	receipts.Get("/:id", middleware.Authorize(middleware.OpViewReceipts), receiptController.GetReceipt)
	receipts.Put("/:id", middleware.Authorize(middleware.OpManageReceipts), receiptController.UpdateReceipt)
	receipts.Get("/:id/pdf", middleware.Authorize(middleware.OpViewReceipts), receiptController.DownloadReceipt)

	// Activity logs
	logs := protected.Group("/logs")
	logs.Get("/", middleware.Authorize(middleware.OpViewActivityLogs), logController.GetActivityLogs)
}
