package config

type WorkerKeyStruct struct {
	PersistAttemptsQueue string
	// DeadAttemptsQueue holds payloads that failed to insert too many times.
	DeadAttemptsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAttemptsQueue: "persist_attempts_queue",
	DeadAttemptsQueue:    "persist_attempts_dead",
}
