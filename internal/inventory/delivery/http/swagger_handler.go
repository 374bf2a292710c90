package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation for the field service API
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// ListInventory godoc
// @Summary List inventory records
// @Description List ledger rows with optional product, batch and location filters
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param product_id query int false "Product ID"
// @Param batch_id query int false "Batch ID"
// @Param location query string false "Location code"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/inventory [get]
func (h *InventoryHandler) ListInventoryDoc() {}

// GetInventory godoc
// @Summary Get inventory record by ID
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param id path int true "Inventory record ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string,kind=string}
// @Router /api/inventory/{id} [get]
func (h *InventoryHandler) GetInventoryDoc() {}

// ReceiveBatch godoc
// @Summary Receive a batch
// @Description Register a received lot and its serialized devices (Manager only)
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{product_id=int,batch_number=string,location=string,quantity=int,cost_basis=string,imeis=[]string} true "Receipt"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string,kind=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/inventory/receipts [post]
func (h *InventoryHandler) ReceiveBatchDoc() {}

// AdjustInventory godoc
// @Summary Adjust stock
// @Description Apply an INCREASE, DECREASE or CORRECTION to a ledger row (Manager only)
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{product_id=int,batch_id=int,location=string,adjustment_type=string,quantity=int,reason=string,device_imeis=[]string} true "Adjustment"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string,kind=string}
// @Failure 422 {object} object{success=bool,error=string,kind=string}
// @Router /api/inventory/adjustments [post]
func (h *InventoryHandler) AdjustInventoryDoc() {}

// TransferInventory godoc
// @Summary Transfer stock between locations
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{product_id=int,batch_id=int,from_location=string,to_location=string,quantity=int,device_imeis=[]string,reason=string} true "Transfer"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string,kind=string}
// @Failure 422 {object} object{success=bool,error=string,kind=string}
// @Router /api/inventory/transfers [post]
func (h *InventoryHandler) TransferInventoryDoc() {}

// ChangeReservation godoc
// @Summary Reserve, release or commit stock on a ledger row
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Inventory record ID"
// @Param request body object{action=string,quantity=int,reference=string} true "Reservation"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 422 {object} object{success=bool,error=string,kind=string}
// @Router /api/inventory/{id}/reservations [post]
func (h *InventoryHandler) ChangeReservationDoc() {}

// ReturnStock godoc
// @Summary Return issued stock of a job
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{job_id=int,location=string,device_imeis=[]string,lines=array,reason=string} true "Return"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string,kind=string}
// @Router /api/inventory/returns [post]
func (h *InventoryHandler) ReturnStockDoc() {}

// AvailableDevices godoc
// @Summary List available devices
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param product_id query int true "Product ID"
// @Param batch_id query int false "Batch ID"
// @Param location query string false "Location code"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/inventory/devices/available [get]
func (h *InventoryHandler) AvailableDevicesDoc() {}

// ExportReport godoc
// @Summary Export stock report
// @Description Stock levels, devices and recent movements as an xlsx workbook
// @Tags Inventory
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param product_id query int false "Product ID"
// @Param location query string false "Location code"
// @Success 200 {file} file
// @Router /api/inventory/report [get]
func (h *InventoryHandler) ExportReportDoc() {}

// HealthCheck godoc
// @Summary Health check
// @Description Check service health and database connectivity
// @Tags Health
// @Produce json
// @Success 200 {object} object{success=bool,message=string}
// @Failure 503 {object} object{success=bool,error=string}
// @Router /health [get]
func HealthCheckDoc() {}
