package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUPointSub(t *testing.T) {
	tests := []struct {
		name    string
		a, b    UPoint
		want    UPoint
		wantErr bool
	}{
		{"plain", UPt(5, 4), UPt(2, 1), UPt(3, 3), false},
		{"to zero", UPt(3, 3), UPt(3, 3), UPt(0, 0), false},
		{"x underflow", UPt(1, 5), UPt(2, 0), UPoint{}, true},
		{"y underflow", UPt(5, 0), UPt(0, 1), UPoint{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Sub(tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnderflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToUPoint(t *testing.T) {
	u, err := ToUPoint(Pt(3, 7))
	require.NoError(t, err)
	assert.Equal(t, UPt(3, 7), u)

	_, err = ToUPoint(Pt(-1, 0))
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestRectIntersect(t *testing.T) {
	a := R(0, 0, 4, 4)
	b := R(2, 3, 5, 5)
	assert.True(t, a.Overlaps(b))
	assert.Equal(t, R(2, 3, 2, 1), a.Intersect(b))

	c := R(4, 0, 1, 1)
	assert.False(t, a.Overlaps(c), "touching edges do not overlap")
	assert.True(t, a.Intersect(c).Empty())

	assert.True(t, a.Contains(Pt(3, 3)))
	assert.False(t, a.Contains(Pt(4, 3)))
}
