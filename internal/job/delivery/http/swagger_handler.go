package http

// ListJobs godoc
// @Summary List jobs
// @Tags Jobs
// @Security BearerAuth
// @Produce json
// @Param status query string false "Job status"
// @Param technician_id query int false "Assigned technician"
// @Param customer_id query int false "Customer ID"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/jobs [get]
func (h *JobHandler) ListJobsDoc() {}

// CreateJob godoc
// @Summary Create a job
// @Description Create a job; a job created with technicians starts ASSIGNED (Manager only)
// @Tags Jobs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{customer_id=int,vehicle_id=int,job_type=string,required_product_ids=[]int,technician_ids=[]int,scheduled_date=string} true "Job"
// @Success 201 {object} object{success=bool,message=string,data=object}
// @Failure 400 {object} object{success=bool,error=string,kind=string}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/jobs [post]
func (h *JobHandler) CreateJobDoc() {}

// GetJob godoc
// @Summary Get job by ID
// @Tags Jobs
// @Security BearerAuth
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 404 {object} object{success=bool,error=string,kind=string}
// @Router /api/jobs/{id} [get]
func (h *JobHandler) GetJobDoc() {}

// JobHistory godoc
// @Summary Status history of a job
// @Tags Jobs
// @Security BearerAuth
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} object{success=bool,data=array}
// @Router /api/jobs/{id}/history [get]
func (h *JobHandler) JobHistoryDoc() {}

// TransitionJob godoc
// @Summary Move a job to another status
// @Description Guards are evaluated against the job, its requisitions and inspections. VERIFIED requires a manager.
// @Tags Jobs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param request body object{status=string,location=object{latitude=number,longitude=number},completion_notes=string,customer_acknowledged=bool,customer_signatory=string,reason=string} true "Transition"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 403 {object} object{success=bool,error=string}
// @Failure 409 {object} object{success=bool,error=string,kind=string,details=object}
// @Router /api/jobs/{id}/transitions [post]
func (h *JobHandler) TransitionJobDoc() {}

// AssignTechnicians godoc
// @Summary Add technicians to a job (Manager only)
// @Tags Jobs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param request body object{technician_ids=[]int,primary_first=bool} true "Technicians"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/jobs/{id}/technicians [post]
func (h *JobHandler) AssignTechniciansDoc() {}

// RemoveTechnician godoc
// @Summary Remove a technician from a job (Manager only)
// @Tags Jobs
// @Security BearerAuth
// @Produce json
// @Param id path int true "Job ID"
// @Param technician_id path int true "Technician ID"
// @Param new_primary_id query int false "Replacement primary technician"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string,kind=string}
// @Router /api/jobs/{id}/technicians/{technician_id} [delete]
func (h *JobHandler) RemoveTechnicianDoc() {}

// SetPrimaryTechnician godoc
// @Summary Make a technician the primary one (Manager only)
// @Tags Jobs
// @Security BearerAuth
// @Produce json
// @Param id path int true "Job ID"
// @Param technician_id path int true "Technician ID"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/jobs/{id}/technicians/{technician_id}/primary [put]
func (h *JobHandler) SetPrimaryTechnicianDoc() {}

// AttachVehicle godoc
// @Summary Attach the customer vehicle to a job
// @Tags Jobs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param request body object{vehicle_id=int} true "Vehicle"
// @Success 200 {object} object{success=bool,data=object}
// @Router /api/jobs/{id}/vehicle [put]
func (h *JobHandler) AttachVehicleDoc() {}

// SaveInstallation godoc
// @Summary Record installed devices
// @Description Allowed while the job is IN_PROGRESS or POST_INSPECTION_PENDING
// @Tags Jobs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param request body object{device_imeis=[]string,sim_numbers=[]string,mac_addresses=[]string,location=object{latitude=number,longitude=number},photos=[]string,notes=string,no_device_changed=bool} true "Installation"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 409 {object} object{success=bool,error=string,kind=string}
// @Router /api/jobs/{id}/installation [put]
func (h *JobHandler) SaveInstallationDoc() {}
