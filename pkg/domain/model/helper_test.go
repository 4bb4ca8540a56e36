package model_test

import "github.com/minerva-bot/minerva/pkg/domain/model"

var (
	chGeneral    = model.Channel{Name: "general", ID: "C0GENERAL"}
	chPropulsion = model.Channel{Name: "propulsion", ID: "C0PROP"}
	chRecovery   = model.Channel{Name: "recovery", ID: "C0RECOV"}
	chEng        = model.Channel{Name: "eng", ID: "C2"}
)

func newDirectory() *model.ChannelDirectory {
	return model.NewChannelDirectory(
		[]model.Channel{chGeneral, chPropulsion, chRecovery, chEng},
		[]string{"general", "propulsion"},
	)
}
