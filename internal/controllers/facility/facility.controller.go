package facilityController

import (
	"context"
	"strings"
	"time"

	"cleanops/internal/database"
	. "cleanops/internal/models"
	"cleanops/internal/repositories"
	"cleanops/internal/services"
	"cleanops/internal/types"
	"cleanops/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FacilityController struct {
	workOrderRepo      repositories.WorkOrderRepository
	timerRepo          repositories.FacilityTimerRepository
	directoryRepo      repositories.DirectoryRepository
	directory          *services.DirectoryService
	transactionService *services.TransactionService
	notifier           services.Notifier
	db                 database.DB
	now                func() time.Time
	log                logger.Logger
}

type PlannedStage struct {
	Name             string     `json:"name"`
	PlannedStartTime *time.Time `json:"plannedStartTime"`
}

type CreateWorkOrderRequest struct {
	LocationID    uuid.UUID      `json:"facilityId"`
	Supervisors   []uuid.UUID    `json:"supervisors"`
	Rooms         []uuid.UUID    `json:"rooms"`
	ScheduledDate time.Time      `json:"scheduledDate"`
	Repeat        RepeatRule     `json:"repeat"`
	Stages        []PlannedStage `json:"stages"`
}

func (r *CreateWorkOrderRequest) Validate() error {
	if r.LocationID == uuid.Nil {
		return types.Validation("facilityId", "facilityId is required")
	}
	if len(r.Supervisors) == 0 {
		return types.Validation("supervisors", "at least one supervisor is required")
	}
	if r.ScheduledDate.IsZero() {
		return types.Validation("scheduledDate", "scheduledDate is required")
	}
	if len(r.Stages) == 0 {
		return types.Validation("stages", "at least one stage is required")
	}
	seen := make(map[string]bool, len(r.Stages))
	for i := range r.Stages {
		name := strings.TrimSpace(r.Stages[i].Name)
		if name == "" {
			return types.Validation("stages", "stage %d has no name", i+1)
		}
		if seen[name] {
			return types.Validation("stages", "stage %s is planned more than once", name)
		}
		seen[name] = true
		r.Stages[i].Name = name
	}
	return nil
}

type StopStageRequest struct {
	EntryID uuid.UUID `json:"stageTimerEntryId"`
}

func (r *StopStageRequest) Validate() error {
	if r.EntryID == uuid.Nil {
		return types.Validation("stageTimerEntryId", "stageTimerEntryId is required")
	}
	return nil
}

type StageNoteRequest struct {
	Note string `json:"note"`
}

func (r *StageNoteRequest) Validate() error {
	r.Note = strings.TrimSpace(r.Note)
	if r.Note == "" {
		return types.Validation("note", "note is required")
	}
	return nil
}

type WorkOrderDetail struct {
	WorkOrder *FacilityWorkOrder `json:"workOrder"`
	Progress  WorkOrderProgress  `json:"progress"`
}

type FacilityControllerInterface interface {
	CreateWorkOrder(
		ctx context.Context,
		actor types.Actor,
		request *CreateWorkOrderRequest,
	) (*FacilityWorkOrder, error)
	GetWorkOrder(ctx context.Context, actor types.Actor, workOrderID uuid.UUID) (*WorkOrderDetail, error)
	StartStage(
		ctx context.Context,
		actor types.Actor,
		workOrderID uuid.UUID,
		stageName string,
	) (*FacilityTimerStage, error)
	StopStage(
		ctx context.Context,
		actor types.Actor,
		workOrderID uuid.UUID,
		stageName string,
		request *StopStageRequest,
	) (*FacilityTimerStage, error)
	AddStageNote(
		ctx context.Context,
		actor types.Actor,
		workOrderID uuid.UUID,
		stageID uuid.UUID,
		request *StageNoteRequest,
	) (*WorkOrderStageNote, error)
	ReleaseWorkOrder(ctx context.Context, actor types.Actor, workOrderID uuid.UUID) (*FacilityWorkOrder, error)
	StageProgress(ctx context.Context, actor types.Actor, workOrderID uuid.UUID) (*WorkOrderProgress, error)
	RepeatDueWorkOrders(ctx context.Context) (int, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	db database.DB,
) FacilityControllerInterface {
	return &FacilityController{
		workOrderRepo:      repos.WorkOrder,
		timerRepo:          repos.FacilityTimer,
		directoryRepo:      repos.Directory,
		directory:          services.Directory,
		transactionService: services.Transaction,
		notifier:           services.Notification,
		db:                 db,
		now:                func() time.Time { return time.Now().UTC() },
		log:                logger.New("facilityController"),
	}
}

func (c *FacilityController) CreateWorkOrder(
	ctx context.Context,
	actor types.Actor,
	request *CreateWorkOrderRequest,
) (*FacilityWorkOrder, error) {
	log := c.log.TraceFromContext(ctx).Function("CreateWorkOrder")

	if err := actor.Require(types.RoleManager, types.RoleAdmin); err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	workOrder := &FacilityWorkOrder{
		LocationID:          request.LocationID,
		ScheduledDate:       request.ScheduledDate.UTC(),
		AssignedSupervisors: request.Supervisors,
		AssignedRooms:       request.Rooms,
		AssignedManager:     actor.ID,
		Repeat:              request.Repeat,
	}
	if workOrder.Repeat == "" {
		workOrder.Repeat = RepeatNone
	}
	if workOrder.AssignedRooms == nil {
		workOrder.AssignedRooms = []uuid.UUID{}
	}
	if workOrder.Repeat != RepeatNone {
		next, err := utils.CalculateNextDate(workOrder.ScheduledDate, string(workOrder.Repeat))
		if err != nil {
			return nil, err
		}
		workOrder.RepeatDate = &next
	}
	for i, stage := range request.Stages {
		workOrder.Stages = append(workOrder.Stages, WorkOrderStage{
			Name:             stage.Name,
			Position:         i,
			PlannedStartTime: utcPtr(stage.PlannedStartTime),
		})
	}

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if _, err := c.directoryRepo.GetLocation(ctx, tx, request.LocationID); err != nil {
			return err
		}
		if err := c.directory.RequireWorkers(
			ctx,
			tx,
			"supervisors",
			request.Supervisors,
			types.RoleSupervisor,
		); err != nil {
			return err
		}
		if _, err := c.directory.RequireRooms(ctx, tx, "rooms", request.LocationID, request.Rooms); err != nil {
			return err
		}
		if err := c.rejectOverlap(ctx, tx, workOrder); err != nil {
			return err
		}

		return c.workOrderRepo.Create(ctx, tx, workOrder)
	})
	if err != nil {
		return nil, log.Err("failed to create work order", err, "locationID", request.LocationID)
	}

	for _, supervisor := range workOrder.AssignedSupervisors {
		c.notifier.Notify(ctx, types.Notification{
			RecipientID: supervisor,
			Title:       "Facility work order assigned",
			Body:        "You have been assigned a facility work order",
			Data:        map[string]any{"workOrderId": workOrder.ID, "scheduledDate": workOrder.ScheduledDate},
		})
	}

	log.Info("Work order created", "workOrderID", workOrder.ID, "stages", len(workOrder.Stages))
	return workOrder, nil
}

// rejectOverlap enforces one open work order per facility day for any
// supervisor.
func (c *FacilityController) rejectOverlap(ctx context.Context, tx *gorm.DB, workOrder *FacilityWorkOrder) error {
	sameDay, err := c.workOrderRepo.FindForLocationDay(
		ctx,
		tx,
		workOrder.LocationID,
		utils.StartOfDay(workOrder.ScheduledDate),
	)
	if err != nil {
		return err
	}

	for _, existing := range sameDay {
		if existing.Completed {
			continue
		}
		if existing.SharesSupervisor(workOrder.AssignedSupervisors) {
			return types.Conflict(
				"an open work order %s already exists for this facility and day",
				existing.ID,
			)
		}
	}

	return nil
}

func (c *FacilityController) GetWorkOrder(
	ctx context.Context,
	actor types.Actor,
	workOrderID uuid.UUID,
) (*WorkOrderDetail, error) {
	log := c.log.TraceFromContext(ctx).Function("GetWorkOrder")

	if err := actor.Require(types.RoleAdmin, types.RoleManager, types.RoleSupervisor); err != nil {
		return nil, err
	}

	workOrder, err := c.workOrderRepo.GetByID(ctx, c.db.SQL, workOrderID)
	if err != nil {
		return nil, log.Err("failed to get work order", err, "workOrderID", workOrderID)
	}

	recorded, err := c.timerRepo.ListStages(ctx, c.db.SQL, workOrderID)
	if err != nil {
		return nil, log.Err("failed to list timer stages", err, "workOrderID", workOrderID)
	}

	return &WorkOrderDetail{
		WorkOrder: workOrder,
		Progress:  BuildWorkOrderProgress(workOrder, recorded),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
