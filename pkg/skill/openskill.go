package skill

import (
	"github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
)

// OpenSkill predicts outcomes with the Weng-Lin (Plackett-Luce) model. Every
// competitor plays as a team of one.
type OpenSkill struct {
	options *types.OpenSkillOptions
}

// NewOpenSkill creates a predictor using the library's default model options
func NewOpenSkill() *OpenSkill {
	return &OpenSkill{}
}

// Predict returns the win probability of each rating
func (o *OpenSkill) Predict(ratings []Rating) ([]float64, error) {
	if err := validateRatings(ratings); err != nil {
		return nil, err
	}
	if len(ratings) == 1 {
		return []float64{1.0}, nil
	}

	teams := make([]types.Team, len(ratings))
	for i, r := range ratings {
		teams[i] = types.Team{types.Rating{Mu: r.Mu, Sigma: r.Sigma}}
	}
	return rating.PredictWin(teams, o.options), nil
}
