package model

type DriverStanding struct {
	Position    int     `json:"position"`
	Points      float64 `json:"points"`
	Wins        int     `json:"wins"`
	Driver      Driver  `json:"driver"`
	Constructor string  `json:"constructor"`
}

type ConstructorStanding struct {
	Position int     `json:"position"`
	Points   float64 `json:"points"`
	Wins     int     `json:"wins"`
	Name     string  `json:"name"`
}
