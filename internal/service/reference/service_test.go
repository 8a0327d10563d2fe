package reference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/harvest/internal/repository/blob"
)

var testFiles = Files{Names: "names.csv", Locations: "locations.csv", Crops: "crops.csv"}

func newTestService(t *testing.T, objects map[string]string) *Service {
	t.Helper()
	store := blob.NewMemoryStore()
	for key, data := range objects {
		require.NoError(t, store.Put(context.Background(), key, []byte(data)))
	}
	return NewService(store, testFiles, nil)
}

func TestListNames(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"names.csv": "姓名,備註\n王小明,x\n123,\n\n王123,\n  ,\n４５,\nAmy,\n",
	})

	names, err := svc.ListNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"王小明", "王123", "Amy"}, names)
}

func TestListLocations(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"locations.csv": "採收位置\nB區\n蛋雞舍\nA區\n",
	})

	locations, err := svc.ListLocations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B區", "蛋雞舍", "A區"}, locations)
}

func TestListDegradesToEmpty(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"locations.csv": "a,a\n1,2\n",
		"crops.csv":     "\xff\xfe",
	})

	names, err := svc.ListNames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.NotNil(t, names)

	locations, err := svc.ListLocations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, locations)

	crops, err := svc.ListCrops(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, crops.All)

	found, err := svc.SearchCrops(context.Background(), "番")
	require.NoError(t, err)
	assert.Empty(t, found)
}

const cropsCSV = "採收作物,中分類\n" +
	"番茄,果菜類\n" +
	"小黃瓜,果菜類\n" +
	"空心菜,葉菜類\n" +
	"Basil,香草類\n" +
	"九層塔,香草類\n" +
	"A菜,葉菜類\n"

func TestListCropsGroupsAndSorts(t *testing.T) {
	svc := newTestService(t, map[string]string{"crops.csv": cropsCSV})

	options, err := svc.ListCrops(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, options.Query)
	assert.Nil(t, options.Filtered)

	for category, crops := range options.All {
		for i := 1; i < len(crops); i++ {
			assert.LessOrEqual(t, codePointSum(crops[i-1]), codePointSum(crops[i]), category)
		}
	}
	assert.ElementsMatch(t, []string{"番茄", "小黃瓜"}, options.All["果菜類"])
	assert.Equal(t, []string{"A菜", "空心菜"}, options.All["葉菜類"])
	assert.Equal(t, []string{"Basil", "九層塔"}, options.All["香草類"])
}

func TestListCropsWithQuery(t *testing.T) {
	svc := newTestService(t, map[string]string{"crops.csv": cropsCSV})

	options, err := svc.ListCrops(context.Background(), "basil")
	require.NoError(t, err)
	assert.Equal(t, []string{"Basil"}, options.Filtered)
	assert.Len(t, options.All, 3)

	options, err = svc.ListCrops(context.Background(), "不存在")
	require.NoError(t, err)
	assert.NotNil(t, options.Filtered)
	assert.Empty(t, options.Filtered)
}

func TestSearchCrops(t *testing.T) {
	svc := newTestService(t, map[string]string{"crops.csv": cropsCSV})

	t.Run("case insensitive", func(t *testing.T) {
		found, err := svc.SearchCrops(context.Background(), "a菜")
		require.NoError(t, err)
		assert.Equal(t, []string{"A菜"}, found)
	})

	t.Run("literal match", func(t *testing.T) {
		found, err := svc.SearchCrops(context.Background(), ".*")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("empty query matches all", func(t *testing.T) {
		found, err := svc.SearchCrops(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, []string{"番茄", "小黃瓜", "空心菜", "Basil", "九層塔", "A菜"}, found)
	})
}

func TestListCropsSkipsUncategorized(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"crops.csv": "採收作物,中分類\n番茄,果菜類\n韭菜,\n青蔥, \n",
	})

	options, err := svc.ListCrops(context.Background(), "韭")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"果菜類": {"番茄"}}, options.All)
	assert.Equal(t, []string{"韭菜"}, options.Filtered)

	found, err := svc.SearchCrops(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"番茄", "韭菜", "青蔥"}, found)
}

func TestCropsMissingColumn(t *testing.T) {
	svc := newTestService(t, map[string]string{"crops.csv": "作物\n番茄\n"})

	_, err := svc.ListCrops(context.Background(), "")
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = svc.SearchCrops(context.Background(), "番")
	assert.ErrorIs(t, err, ErrMissingColumn)
}
