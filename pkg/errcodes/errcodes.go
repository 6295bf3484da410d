package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"
	Forbidden           failure.ErrorCode = "Forbidden"

	InvalidTrackedKey failure.ErrorCode = "InvalidTrackedKey" // key outside the configured set
	InvalidTimeRange  failure.ErrorCode = "InvalidTimeRange"  // start after end
	StorageFailure    failure.ErrorCode = "StorageFailure"    // persistence layer rejected a read/write
)
