package types

const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionExternalServiceFailed     = "external_service_failed"

	ActionFixIngest        = "ingest_fix"
	ActionFixDiscarded     = "discard_fix"
	ActionRecomputeMetrics = "recompute_daily_metrics"
	ActionZoneDetect       = "detect_zone_event"
	ActionWeightsUpdate    = "update_score_weights"
)
