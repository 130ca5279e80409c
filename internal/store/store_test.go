package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

func TestNewStoreFailsFastOnBadDirectory(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSnapshotLoad.Code, appErr.Code)
}

func TestStoreReloadSwapsSnapshot(t *testing.T) {
	dir := writeFixtureDir(t)

	st, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, st.Current().Students, 2)

	writeCSV(t, dir, TableStudents,
		"student_id,name,email,enrollment_date,current_trimester,cgpa\n"+
			"S001,Asha Rao,asha@example.edu,2023-07-15,3,8.2\n"+
			"S002,Ravi Kumar,ravi@example.edu,2024-01-10,2,5.5\n"+
			"S003,Meena Iyer,meena@example.edu,2024-07-01,1,7.0\n")

	require.NoError(t, st.Reload())
	assert.Len(t, st.Current().Students, 3)
}

func TestStoreReloadKeepsPreviousSnapshotOnFailure(t *testing.T) {
	dir := writeFixtureDir(t)

	st, err := NewStore(dir, zap.NewNop())
	require.NoError(t, err)
	before := st.Current()

	require.NoError(t, os.Remove(filepath.Join(dir, TableCourses+".csv")))

	err = st.Reload()
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSnapshotLoad.Code, appErrors.FromError(err).Code)
	assert.Same(t, before, st.Current())
}
