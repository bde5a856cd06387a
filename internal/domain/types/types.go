package types

type ServiceMode string

// Telemetry Service - Accepts position fixes from field workers, manages tracking settings and the live feed
// Analytics Service - Serves daily/weekly/monthly performance, rankings, zone analytics and exports
// Zone Detector Service - Consumes the accepted-fix stream and emits geofence enter/exit events
// Agent - Runs the on-device position sampler against a position source and pushes fixes upstream
const (
	TelemetryService    ServiceMode = "telemetry-service"
	AnalyticsService    ServiceMode = "analytics-service"
	ZoneDetectorService ServiceMode = "zone-detector"
	AgentMode           ServiceMode = "agent"
)

type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleWorker  UserRole = "WORKER"
	RoleManager UserRole = "MANAGER"
)

// Period selects the time window for rankings and performance queries.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// RankingMetric selects the leaderboard variant.
type RankingMetric string

const (
	MetricGlobal       RankingMetric = "global"
	MetricGlobalSalary RankingMetric = "global_salary"
)

func (m RankingMetric) Valid() bool {
	return m == MetricGlobal || m == MetricGlobalSalary
}

// ExportType selects the dataset flattened by the export facade.
type ExportType string

const (
	ExportDaily      ExportType = "daily"
	ExportRankings   ExportType = "rankings"
	ExportZoneEvents ExportType = "zone_events"
)

// ZoneEventType is the geofence crossing direction.
type ZoneEventType string

const (
	ZoneEnter ZoneEventType = "enter"
	ZoneExit  ZoneEventType = "exit"
)
