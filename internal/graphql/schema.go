// Package graphql exposes the training content and progress over a GraphQL endpoint.
package graphql

import (
	gql "github.com/graphql-go/graphql"
)

var platformEnum = gql.NewEnum(gql.EnumConfig{
	Name: "VideoPlatform",
	Values: gql.EnumValueConfigMap{
		"YOUTUBE": &gql.EnumValueConfig{Value: "youtube"},
		"VIMEO":   &gql.EnumValueConfig{Value: "vimeo"},
		"AZURE":   &gql.EnumValueConfig{Value: "azure"},
		"DIRECT":  &gql.EnumValueConfig{Value: "direct"},
	},
})

var contentTypeEnum = gql.NewEnum(gql.EnumConfig{
	Name: "ContentType",
	Values: gql.EnumValueConfigMap{
		"PRESENTATION": &gql.EnumValueConfig{Value: "presentation"},
		"RECORDING":    &gql.EnumValueConfig{Value: "recording"},
	},
})

var recordingType = gql.NewObject(gql.ObjectConfig{
	Name: "Recording",
	Fields: gql.Fields{
		"recordingId": &gql.Field{Type: gql.NewNonNull(gql.String)},
		"dayNumber":   &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"title":       &gql.Field{Type: gql.NewNonNull(gql.String)},
		"videoUrl":    &gql.Field{Type: gql.NewNonNull(gql.String)},
		"embedUrl":    &gql.Field{Type: gql.NewNonNull(gql.String)},
		"platform":    &gql.Field{Type: gql.NewNonNull(platformEnum)},
		"duration":    &gql.Field{Type: gql.NewNonNull(gql.String)},
		"uploadedAt":  &gql.Field{Type: gql.NewNonNull(gql.String)},
		"uploadedBy":  &gql.Field{Type: gql.NewNonNull(gql.String)},
		"viewCount":   &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"isActive":    &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
	},
})

var trainingDayType = gql.NewObject(gql.ObjectConfig{
	Name: "TrainingDay",
	Fields: gql.Fields{
		"dayNumber":  &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"title":      &gql.Field{Type: gql.NewNonNull(gql.String)},
		"isUnlocked": &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"unlockedAt": &gql.Field{Type: gql.String},
		"unlockedBy": &gql.Field{Type: gql.String},
		"recording":  &gql.Field{Type: recordingType},
	},
})

var userProgressType = gql.NewObject(gql.ObjectConfig{
	Name: "UserProgress",
	Fields: gql.Fields{
		"progressId":           &gql.Field{Type: gql.NewNonNull(gql.String)},
		"userId":               &gql.Field{Type: gql.NewNonNull(gql.String)},
		"dayNumber":            &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"viewedPresentation":   &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"viewedRecording":      &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"completionPercentage": &gql.Field{Type: gql.NewNonNull(gql.Float)},
		"lastAccessed":         &gql.Field{Type: gql.NewNonNull(gql.String)},
	},
})

var dashboardStatsType = gql.NewObject(gql.ObjectConfig{
	Name: "DashboardStats",
	Fields: gql.Fields{
		"totalDays":           &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"unlockedDays":        &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"lockedDays":          &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"recordingsAvailable": &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"totalUsers":          &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"activeStudents":      &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"lastUpdated":         &gql.Field{Type: gql.NewNonNull(gql.String)},
	},
})

var removeResultType = gql.NewObject(gql.ObjectConfig{
	Name: "RemoveRecordingResult",
	Fields: gql.Fields{
		"success":     &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"recordingId": &gql.Field{Type: gql.NewNonNull(gql.String)},
		"dayNumber":   &gql.Field{Type: gql.NewNonNull(gql.Int)},
	},
})

var unlockDayInput = gql.NewInputObject(gql.InputObjectConfig{
	Name: "UnlockDayInput",
	Fields: gql.InputObjectConfigFieldMap{
		"dayNumber":  &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.Int)},
		"adminToken": &gql.InputObjectFieldConfig{Type: gql.String},
	},
})

var uploadRecordingInput = gql.NewInputObject(gql.InputObjectConfig{
	Name: "UploadRecordingInput",
	Fields: gql.InputObjectConfigFieldMap{
		"dayNumber":  &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.Int)},
		"title":      &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
		"videoUrl":   &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.String)},
		"duration":   &gql.InputObjectFieldConfig{Type: gql.String},
		"platform":   &gql.InputObjectFieldConfig{Type: platformEnum},
		"adminToken": &gql.InputObjectFieldConfig{Type: gql.String},
	},
})

var markProgressInput = gql.NewInputObject(gql.InputObjectConfig{
	Name: "MarkProgressInput",
	Fields: gql.InputObjectConfigFieldMap{
		"userId":      &gql.InputObjectFieldConfig{Type: gql.String},
		"dayNumber":   &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.Int)},
		"contentType": &gql.InputObjectFieldConfig{Type: gql.NewNonNull(contentTypeEnum)},
	},
})

// NewSchema builds the schema over r.
func NewSchema(r *Resolver) (gql.Schema, error) {
	dayArg := gql.FieldConfigArgument{
		"dayNumber": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Int)},
	}

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"trainingDays": &gql.Field{
				Type:    gql.NewNonNull(gql.NewList(gql.NewNonNull(trainingDayType))),
				Resolve: r.trainingDays,
			},
			"trainingDay": &gql.Field{
				Type:    trainingDayType,
				Args:    dayArg,
				Resolve: r.trainingDay,
			},
			"unlockedDays": &gql.Field{
				Type:    gql.NewNonNull(gql.NewList(gql.NewNonNull(trainingDayType))),
				Resolve: r.unlockedDays,
			},
			"recordings": &gql.Field{
				Type:    gql.NewNonNull(gql.NewList(gql.NewNonNull(recordingType))),
				Resolve: r.recordings,
			},
			"userProgress": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(userProgressType))),
				Args: gql.FieldConfigArgument{
					"userId": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: r.userProgress,
			},
			"dashboardStats": &gql.Field{
				Type: gql.NewNonNull(dashboardStatsType),
				Args: gql.FieldConfigArgument{
					"adminToken": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: r.dashboardStats,
			},
		},
	})

	mutation := gql.NewObject(gql.ObjectConfig{
		Name: "Mutation",
		Fields: gql.Fields{
			"unlockDay": &gql.Field{
				Type: gql.NewNonNull(trainingDayType),
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(unlockDayInput)},
				},
				Resolve: r.unlockDay,
			},
			"lockDay": &gql.Field{
				Type: gql.NewNonNull(trainingDayType),
				Args: gql.FieldConfigArgument{
					"dayNumber":  &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Int)},
					"adminToken": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: r.lockDay,
			},
			"uploadRecording": &gql.Field{
				Type: gql.NewNonNull(recordingType),
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(uploadRecordingInput)},
				},
				Resolve: r.uploadRecording,
			},
			"removeRecording": &gql.Field{
				Type: gql.NewNonNull(removeResultType),
				Args: gql.FieldConfigArgument{
					"recordingId": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)},
					"adminToken":  &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: r.removeRecording,
			},
			"markContentViewed": &gql.Field{
				Type: gql.NewNonNull(userProgressType),
				Args: gql.FieldConfigArgument{
					"input": &gql.ArgumentConfig{Type: gql.NewNonNull(markProgressInput)},
				},
				Resolve: r.markContentViewed,
			},
		},
	})

	return gql.NewSchema(gql.SchemaConfig{Query: query, Mutation: mutation})
}
