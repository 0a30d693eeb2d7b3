package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)
	RegisterHandler(SweepOverdueTask.TaskID(), SweepOverdueTask.HandleExecution)
	RegisterHandler(SendPaymentRemindersTask.TaskID(), SendPaymentRemindersTask.HandleExecution)
}
