package repo

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
	"github.com/Skotchmaster/repair_shop/internal/testutil"
)

func variantsOf(labels ...string) []Variant {
	vs := make([]Variant, 0, len(labels))
	for i, l := range labels {
		vs = append(vs, Variant{Label: l, Price: float64(i + 1)})
	}
	return vs
}

// Readers running next to a writer must only ever see one complete set.
func TestUpdateModel_ReadersSeeWholeSet_Postgres(t *testing.T) {
	r := New(testutil.NewPostgresDB(t, models.AutoMigrate))
	ctx := context.Background()

	p := &models.Product{Name: "Pixel", Brand: "Google", Category: "Phone"}
	require.NoError(t, r.CreateProduct(ctx, p))

	setA := []string{"a-battery", "a-screen"}
	setB := []string{"b-back", "b-camera", "b-port"}

	created, err := r.CreateModel(ctx, ModelInput{ProductID: p.ID, Name: "Pixel 7", Variants: variantsOf(setA...)})
	require.NoError(t, err)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := range 40 {
			set := setA
			if i%2 == 0 {
				set = setB
			}
			if _, err := r.UpdateModel(ctx, created.ID, ModelInput{ProductID: p.ID, Name: "Pixel 7", Variants: variantsOf(set...)}); err != nil {
				t.Errorf("update %d: %v", i, err)
				return
			}
		}
	}()

	reads := 0
	for {
		select {
		case <-done:
			wg.Wait()
			assert.Positive(t, reads)
			return
		default:
		}
		m, err := r.GetModel(ctx, created.ID)
		require.NoError(t, err)
		got := labels(m)
		sort.Strings(got)
		if !assert.ObjectsAreEqual(setA, got) && !assert.ObjectsAreEqual(setB, got) {
			t.Fatalf("read %d saw a partial set: %v", reads, got)
		}
		reads++
	}
}
