package sqlite

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"

	sqlite "modernc.org/sqlite"

	"github.com/custodia-labs/planscout/internal/adapters/driven/storage/vecmath"
)

// CosineFunction is the SQL name of the cosine similarity function.
const CosineFunction = "vec_cosine"

var registerOnce sync.Once

// registerFunctions makes vec_cosine available on connections opened after
// the first call. Registration is process-wide.
func registerFunctions() {
	registerOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction(CosineFunction, 2, vecCosine)
	})
}

// vecCosine returns the cosine similarity of two embedding BLOBs, or NULL
// when either side is missing or the vectors cannot be compared.
func vecCosine(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s: expected 2 arguments, got %d", CosineFunction, len(args))
	}
	a, err := blobArg(args[0])
	if err != nil {
		return nil, err
	}
	b, err := blobArg(args[1])
	if err != nil {
		return nil, err
	}
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}

	sim, err := vecmath.Cosine(a, b)
	if errors.Is(err, vecmath.ErrZeroMagnitude) || errors.Is(err, vecmath.ErrDimensionMismatch) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func blobArg(v driver.Value) ([]float32, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vecmath.Decode(t)
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T, want BLOB", CosineFunction, v)
	}
}
