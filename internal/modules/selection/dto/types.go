package dto

import regimedomain "breathtrain/internal/modules/regime/domain"

type GenerateInput struct {
	Condition string
	Stage     int
}

type GenerateOutput struct {
	Date    string
	Regimes []regimedomain.Regime
}
