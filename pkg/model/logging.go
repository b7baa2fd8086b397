package model

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("model", "Concept Model Assembly")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
