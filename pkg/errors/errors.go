package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrSlotConflict 时段冲突：目标时间段已被其他工单占用
var ErrSlotConflict = errors.New("目标时间段已被占用")
