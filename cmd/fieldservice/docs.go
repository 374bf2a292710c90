package main

// @title Field Service API
// @version 1.0
// @description Job lifecycle, requisitions and inventory allocation for field installation crews
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/field-service
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/field-service/blob/main/LICENSE

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Jobs
// @tag.description Job lifecycle, technicians and installation records

// @tag.name Requisitions
// @tag.description Material requisitions, approval and issuance

// @tag.name Inventory
// @tag.description Stock ledger, serialized devices and movements

// @tag.name Inspections
// @tag.description Vehicle inspection checklist and submissions

// @tag.name Health
// @tag.description Health check endpoints

// @tag.name Swagger
// @tag.description Swagger documentation endpoints
