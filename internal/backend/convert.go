package backend

import (
	"github.com/xarlytos/fitplanner/internal/planning"
)

func (r *planResponse) toPlanRoot() *planning.PlanRoot {
	root := &planning.PlanRoot{
		PlanID: r.PlanningID,
		Name:   r.Nombre,
		Weeks:  make([]planning.Week, 0, len(r.Semanas)),
	}
	for _, w := range r.Semanas {
		week := planning.Week{
			WeekID:     w.ID,
			WeekNumber: w.WeekNumber,
			StartDate:  w.StartDate,
			Days:       make(map[string]planning.Day, len(w.Days)),
		}
		for key, d := range w.Days {
			week.Days[key] = d.toDay()
		}
		root.Weeks = append(root.Weeks, week)
	}
	return root
}

func (d dayResponse) toDay() planning.Day {
	day := planning.Day{
		DayID:        d.ID,
		WeekdayLabel: d.Day,
		CalendarDate: d.Fecha,
	}
	for _, s := range d.Sessions {
		session := planning.Session{
			SessionID: s.ID,
			Name:      s.Name,
		}
		for _, e := range s.Exercises {
			session.Exercises = append(session.Exercises, e.toExercise())
		}
		day.Sessions = append(day.Sessions, session)
	}
	return day
}

func (e exerciseResponse) toExercise() planning.Exercise {
	displayName := e.Exercise
	if displayName == "" {
		displayName = e.Name
	}

	exercise := planning.Exercise{
		ExerciseID:  e.ID,
		DisplayName: displayName,
		SeriesLabel: e.Series,
		ImageURL:    e.Image,
		PlanID:      e.PlanningID,
		SessionID:   e.SessionID,
	}
	for _, s := range e.Sets {
		exercise.Sets = append(exercise.Sets, s.toSetSpec())
	}
	return exercise
}

func (s setResponse) toSetSpec() planning.SetSpec {
	spec := planning.SetSpec{
		SetID:       s.ID,
		Weight:      s.Weight,
		Reps:        s.Reps,
		RestSeconds: s.Rest,
		SessionID:   s.SessionID,
	}
	if s.RenderConfig != nil {
		var fields []planning.Field
		for _, campo := range []string{s.RenderConfig.Campo1, s.RenderConfig.Campo2, s.RenderConfig.Campo3} {
			if campo != "" {
				fields = append(fields, planning.Field(campo))
			}
		}
		spec.FieldMapping = &planning.FieldMapping{Fields: fields}
	}
	return spec
}
