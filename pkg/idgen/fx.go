package idgen

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// Module provides the process-wide snowflake node (for every entity except
// QuotaBatch/Transaction) and the ULID generator (for those two).
var Module = fx.Module("idgen",
	fx.Provide(NewSnowflakeNode),
	fx.Provide(NewULIDGenerator),
)

// NewSnowflakeNode constructs the snowflake.Node used for every entity id
// except QuotaBatch/Transaction, which need ULID's time-ordered property
// instead (see NewULIDGenerator).
func NewSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
