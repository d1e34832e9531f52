package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
)

func TestSetup_memory(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Database.Engine = EngineMemory

	repos, err := Setup(conf)
	require.NoError(t, err)
	assert.Nil(t, repos.DB())
	assert.NoError(t, repos.Close())

	crs, err := repos.Courses.CreateCourse(context.Background(), course.Course{FullName: "Physics"})
	require.NoError(t, err)
	assert.NotZero(t, crs.ID)
}
