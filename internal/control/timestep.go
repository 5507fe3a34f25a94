package control

import (
	"fmt"
	"math"

	"github.com/san-kum/apid/internal/dynamo"
)

func checkTimestep(dt float64) error {
	if dt == 0 {
		return fmt.Errorf("%w: dt=0 makes the derivative undefined", dynamo.ErrInvalidTimestep)
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt=%v", dynamo.ErrInvalidTimestep, dt)
	}
	return nil
}
