package ports

// Metric names shared by the workers and the Prometheus adapter.
const (
	MetricFramesReceived       = "moxa_frames_received_total"
	MetricParseErrors          = "moxa_parse_errors_total"
	MetricQueueDropped         = "moxa_queue_dropped_total"
	MetricMappingMisses        = "moxa_mapping_misses_total"
	MetricRequestsPublished    = "moxa_requests_published_total"
	MetricRepliesSent          = "moxa_replies_sent_total"
	MetricFailureReplies       = "moxa_failure_replies_total"
	MetricUnknownTransactions  = "moxa_unknown_transactions_total"
	MetricPendingExpired       = "moxa_pending_expired_total"
	MetricFieldTransactions    = "moxa_field_transactions_total"
	MetricFieldErrors          = "moxa_field_errors_total"
	MetricFieldReconnects      = "moxa_field_reconnects_total"
	MetricResponsesPublished   = "moxa_responses_published_total"
	MetricPublishErrors        = "moxa_publish_errors_total"
	MetricRequestQueueLength   = "moxa_request_queue_length"
	MetricResponseQueueLength  = "moxa_response_queue_length"
	MetricPendingEntries       = "moxa_pending_entries"
	MetricFieldConnected       = "moxa_field_connected"
	MetricFieldTransactionTime = "moxa_field_transaction_seconds"
	MetricRoundTripTime        = "moxa_round_trip_seconds"
)
