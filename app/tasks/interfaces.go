package tasks

// TaskSchedulerInterface is what the API needs to run background work.
//
//	scheduler := NewScheduler(jobs, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewOffloadTask(magnet, offloader, jobs))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
