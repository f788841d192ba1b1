package models

type Table string

const (
	TableInteractions Table = "interactions"
	TableCommandSyncs Table = "command_syncs"
)

type Mappable interface {
	Table() Table
	Map() map[string]any
}
