package config

type WorkerKeyStruct struct {
	PersistStatsQueue string
	AuditLogQueue     string
}

var WorkerKey = &WorkerKeyStruct{
	PersistStatsQueue: "persist_stats_queue",
	AuditLogQueue:     "audit_log_queue",
}
