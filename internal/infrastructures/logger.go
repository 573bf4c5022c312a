package infrastructures

import (
	"github.com/sirupsen/logrus"
)

// The whole service logs through the package-level logrus logger; configure
// it once so every call site emits structured JSON.
func init() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
}
