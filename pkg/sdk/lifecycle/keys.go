package lifecycle

// Persisted keys of the lifecycle record
const (
	KeyFirstLaunch            = "FirstLaunch"
	KeyFirstLaunchAfterUpdate = "FirstLaunchAfterUpdate"
	KeyFirstLaunchDate        = "FirstLaunchDate"
	KeyLastLaunchDate         = "LastLaunchDate"
	KeyLastUpdateDate         = "ApplicationUpdate"
	KeyLaunchCount            = "LaunchCount"
	KeyLaunchCountSinceUpdate = "LaunchCountSinceUpdate"
	KeyLaunchCountOnDay       = "LaunchCountOnDay"
	KeyLaunchCountOnWeek      = "LaunchCountOnWeek"
	KeyLaunchCountOnMonth     = "LaunchCountOnMonth"
	KeyDaysSinceLastUse       = "DaysSinceLastUse"
	KeyVersion                = "VersionCode"
	KeySessionID              = "SessionId"
)

// Keys written by the first generation of the tracker
const (
	LegacyKeyFirstLaunch = "ATFirstLaunch"
	LegacyKeyLastLaunch  = "ATLastLaunch"
	LegacyKeyLaunchCount = "ATLaunchCount"
)

// DateLayout is the yyyyMMdd layout used for persisted and emitted dates
const DateLayout = "20060102"
