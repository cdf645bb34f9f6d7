package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"backend/services"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

// SchedulerService manages all scheduled tasks
type SchedulerService struct {
	scheduler       *gocron.Scheduler
	DB              *gorm.DB
	ctx             context.Context
	cancel          context.CancelFunc
	registry        *services.Registry
	states          *services.StateStore
	registeredTasks map[string]Task
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(DB *gorm.DB, registry *services.Registry, states *services.StateStore) *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())

	// Create a scheduler with UTC timezone
	s := gocron.NewScheduler(time.UTC)

	return &SchedulerService{
		scheduler:       s,
		DB:              DB,
		ctx:             ctx,
		cancel:          cancel,
		registry:        registry,
		states:          states,
		registeredTasks: make(map[string]Task),
	}
}

// Start begins running the scheduler
func (s *SchedulerService) Start() {
	log.Println("Starting scheduler service...")
	s.scheduler.StartAsync()
}

// Stop halts all scheduled jobs
func (s *SchedulerService) Stop() {
	log.Println("Stopping scheduler service...")
	s.scheduler.Stop()
	s.cancel()
}

// RegisterTasks sets up all scheduled tasks
func (s *SchedulerService) RegisterTasks() {
	s.registerTaskGroup(DataMaintenanceTasks(s.DB, s.states))
	s.registerTaskGroup(TimerTasks(s.DB, s.registry))

	log.Printf("Registered %d scheduled tasks", len(s.registeredTasks))
}

// registerTaskGroup registers a group of tasks
func (s *SchedulerService) registerTaskGroup(tasks []Task) {
	for _, task := range tasks {
		if !task.Enabled {
			log.Printf("Skipping disabled task: %s", task.Name)
			continue
		}

		s.registerTask(task)
	}
}

// registerTask registers a single task with the scheduler
func (s *SchedulerService) registerTask(task Task) {
	s.registeredTasks[task.Name] = task

	job, err := s.scheduler.Cron(task.Schedule).Do(func() {
		log.Printf("Running scheduled task: %s - %s", task.Name, task.Description)

		if err := task.Handler(); err != nil {
			log.Printf("Error in task %s: %v", task.Name, err)
		}
	})

	if err != nil {
		log.Printf("Error scheduling task %s: %v", task.Name, err)
		return
	}

	job.Tag(task.Name)

	log.Printf("Registered task: %s (%s)", task.Name, task.Schedule)
}

// GetTaskByName returns a task by its name
func (s *SchedulerService) GetTaskByName(name string) (Task, bool) {
	task, exists := s.registeredTasks[name]
	return task, exists
}

// ListTasks returns all registered tasks
func (s *SchedulerService) ListTasks() []Task {
	tasks := make([]Task, 0, len(s.registeredTasks))
	for _, task := range s.registeredTasks {
		tasks = append(tasks, task)
	}
	return tasks
}

// RunTaskNow runs a task immediately by name
func (s *SchedulerService) RunTaskNow(name string) error {
	task, exists := s.registeredTasks[name]
	if !exists {
		return fmt.Errorf("task %s not found", name)
	}

	return task.Handler()
}
