package config

type WorkerKeyStruct struct {
	PersistEnrollmentAuditQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistEnrollmentAuditQueue: "persist_enrollment_audit_queue",
}
