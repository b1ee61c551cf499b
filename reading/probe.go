package reading

import (
	"context"
	"fmt"
	"time"

	"github.com/simonhull/audiometa"
)

const probeTimeout = 10 * time.Second

func probeDuration(path string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	return file.Audio.Duration.Seconds(), nil
}
