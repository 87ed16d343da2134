package config

type WorkerKeyStruct struct {
	PersistLeaderboardQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistLeaderboardQueue: "persist_leaderboard_queue",
}
