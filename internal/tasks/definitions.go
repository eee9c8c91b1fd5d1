package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	RegisterHandler(SendReceiptEmailTask.TaskID(), SendReceiptEmailTask.HandleExecution)
	RegisterHandler(SendFeeRemindersTask.TaskID(), SendFeeRemindersTask.HandleExecution)
}
