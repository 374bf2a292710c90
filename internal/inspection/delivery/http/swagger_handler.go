package http

// SubmitInspection godoc
// @Summary Submit a vehicle inspection
// @Description Resubmitting a stage requires edit_mode and records a revision
// @Tags Inspections
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param request body object{vehicle_id=int,stage=string,edit_mode=bool,items=array} true "Inspection"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/jobs/{id}/inspections [post]
func (h *InspectionHandler) SubmitInspectionDoc() {}

// StageStatus godoc
// @Summary Completion of an inspection stage
// @Tags Inspections
// @Security BearerAuth
// @Produce json
// @Param id path int true "Job ID"
// @Param stage path string true "PRE_INSTALLATION or POST_INSTALLATION"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/jobs/{id}/inspections/{stage} [get]
func (h *InspectionHandler) StageStatusDoc() {}

// SaveChecklistItem godoc
// @Summary Create or update a checklist item (Manager only)
// @Tags Inspections
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{id=int,name=string,stages=[]string,active=bool,sort_order=int} true "Checklist item"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Router /api/checklist [post]
func (h *InspectionHandler) SaveChecklistItemDoc() {}
