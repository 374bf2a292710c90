package http

// ListRequisitions godoc
// @Summary List requisitions
// @Tags Requisitions
// @Security BearerAuth
// @Produce json
// @Param job_id query int false "Job ID"
// @Param status query string false "Requisition status"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/requisitions [get]
func (h *RequisitionHandler) ListRequisitionsDoc() {}

// CreateRequisition godoc
// @Summary Request materials for a job
// @Tags Requisitions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{job_id=int,source_location=string,notes=string,items=array} true "Requisition"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string,kind=string}
// @Router /api/requisitions [post]
func (h *RequisitionHandler) CreateRequisitionDoc() {}

// ApproveRequisition godoc
// @Summary Approve a requisition (Manager only)
// @Tags Requisitions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Requisition ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/requisitions/{id}/approve [post]
func (h *RequisitionHandler) ApproveRequisitionDoc() {}

// IssueRequisition godoc
// @Summary Issue stock against an approved requisition (Manager only)
// @Description Requests carrying an Idempotency-Key header are applied once; repeats return the first result
// @Tags Requisitions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Requisition ID"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body object{lines=array} true "Issue lines"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 422 {object} object{success=bool,error=string,kind=string,details=object}
// @Router /api/requisitions/{id}/issue [post]
func (h *RequisitionHandler) IssueRequisitionDoc() {}
